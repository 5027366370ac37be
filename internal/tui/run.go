package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/edward-ap/mcmplayer/internal/session"
)

// Run drives sess from the terminal until the user quits or ctx ends.
func Run(ctx context.Context, sess *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	sess.SetConfirm(confirmVia(p.Send))
	unsubscribe := sess.Subscribe(func(st session.State) { p.Send(stateMsg(st)) })
	defer unsubscribe()

	sess.Start()
	_, err := p.Run()
	return err
}

// confirmVia turns the install question into a prompt message and waits for
// the y/n key.
func confirmVia(send func(tea.Msg)) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		reply := make(chan bool, 1)
		send(promptMsg{reply: reply})
		select {
		case ok := <-reply:
			return ok, nil
		case <-ctx.Done():
			send(promptClosedMsg{})
			return false, ctx.Err()
		}
	}
}
