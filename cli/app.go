package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/theyashgrover/gpt-clone/internal/conversation"
	"github.com/theyashgrover/gpt-clone/internal/domain"
	"github.com/theyashgrover/gpt-clone/internal/history"
)

const commandSummary = "/new /list /search text /switch N /rename N title /delete N /history /attach path /detach N /clear /quit"

// uploader stores a local file and returns its attachment.
type uploader interface {
	Upload(ctx context.Context, path string) (domain.FileAttachment, error)
}

type app struct {
	store    *history.Store
	ctrl     *conversation.Controller
	uploader uploader
	out      io.Writer

	// pending attachments go out with the next message.
	pending []domain.FileAttachment
}

func newApp(store *history.Store, ctrl *conversation.Controller, up uploader, out io.Writer) *app {
	return &app{store: store, ctrl: ctrl, uploader: up, out: out}
}

// handle runs one input line and reports whether the client should exit.
func (a *app) handle(ctx context.Context, line string, interrupt <-chan os.Signal) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if !strings.HasPrefix(input, "/") {
		a.send(ctx, input, interrupt)
		return false
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/new":
		a.store.CreateChat()
		fmt.Fprintln(a.out, "Started a new chat.")
	case "/list":
		a.list()
	case "/switch":
		if id, ok := a.resolveChat(rest); ok && a.store.SwitchTo(id) {
			a.printHistory()
		}
	case "/rename":
		ref, title, _ := strings.Cut(rest, " ")
		if id, ok := a.resolveChat(ref); ok {
			a.store.RenameChat(id, title)
			a.list()
		}
	case "/delete":
		if id, ok := a.resolveChat(rest); ok {
			a.store.DeleteChat(id)
			a.list()
		}
	case "/history":
		a.printHistory()
	case "/search":
		a.search(rest)
	case "/attach":
		a.attach(ctx, rest)
	case "/detach":
		a.detach(rest)
	case "/clear":
		if err := a.store.Clear(ctx); err != nil {
			fmt.Fprintf(a.out, "Failed to clear history: %v\n", err)
			return false
		}
		a.pending = nil
		fmt.Fprintln(a.out, "History cleared.")
	default:
		fmt.Fprintf(a.out, "Unknown command %s. Commands: %s\n", cmd, commandSummary)
	}
	return false
}

// send runs a turn and prints the reply as it streams in. A signal on
// interrupt stops the turn and keeps what arrived so far.
func (a *app) send(ctx context.Context, text string, interrupt <-chan os.Signal) {
	events, unsubscribe := a.ctrl.Subscribe()
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      conc.WaitGroup
		result  conversation.TurnResult
		sendErr error
		failure error
	)
	done := make(chan struct{})
	wg.Go(func() {
		defer close(done)
		result, sendErr = a.ctrl.Send(turnCtx, text, a.pending)
	})
	wg.Go(func() {
		// Events carry the accumulated text, so a skipped delta is caught up
		// by the next one.
		printed := 0
		for ev := range events {
			switch {
			case ev.State == domain.TurnStateFailed:
				failure = ev.Err
			case ev.Type == conversation.EventDelta, ev.State.Terminal():
				if len(ev.Content) > printed {
					fmt.Fprint(a.out, ev.Content[printed:])
					printed = len(ev.Content)
				}
			}
		}
		if printed > 0 && failure != nil {
			fmt.Fprintln(a.out)
		}
	})

	select {
	case <-done:
	case <-interrupt:
		cancel()
		a.ctrl.Stop()
		<-done
	}
	unsubscribe()
	wg.Wait()

	if sendErr != nil {
		fmt.Fprintf(a.out, "Could not send: %v\n", sendErr)
		return
	}
	a.pending = nil

	switch result.State {
	case domain.TurnStateFailed:
		if failure == nil {
			failure = result.Err
		}
		fmt.Fprintf(a.out, "%s (%v)\n", result.Assistant.Content, failure)
	case domain.TurnStateCancelled:
		fmt.Fprintln(a.out, "\n[stopped]")
	default:
		fmt.Fprintln(a.out)
	}
}

func (a *app) attach(ctx context.Context, path string) {
	if path == "" {
		fmt.Fprintln(a.out, "Usage: /attach path")
		return
	}
	att, err := a.uploader.Upload(ctx, path)
	if err != nil {
		fmt.Fprintf(a.out, "Upload failed: %v\n", err)
		return
	}
	a.pending = append(a.pending, att)
	fmt.Fprintf(a.out, "Attached %s (%s, %d bytes). It will be sent with your next message.\n", att.Name, att.Type, att.Size)
}

// detach drops the pending attachment at a 1-based position.
func (a *app) detach(ref string) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(a.pending) {
		fmt.Fprintf(a.out, "No such attachment: %q\n", ref)
		return
	}
	removed := a.pending[n-1]
	a.pending = append(a.pending[:n-1:n-1], a.pending[n:]...)
	fmt.Fprintf(a.out, "Removed %s.\n", removed.Name)
	for i, att := range a.pending {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, att.Name)
	}
}

func (a *app) list() {
	chats := a.store.Chats()
	if len(chats) == 0 {
		fmt.Fprintln(a.out, "No chats yet.")
		return
	}
	current := a.store.CurrentChatID()
	for i, chat := range chats {
		marker := " "
		if chat.ID == current {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %2d. %s (%d messages)\n", marker, i+1, chat.Title, len(chat.Messages))
	}
}

// search lists chats whose title matches, numbered as in /list so the
// numbers work with /switch.
func (a *app) search(query string) {
	matches := a.store.SearchChats(query)
	if len(matches) == 0 {
		fmt.Fprintf(a.out, "No chats match %q.\n", query)
		return
	}
	position := make(map[string]int)
	for i, chat := range a.store.Chats() {
		position[chat.ID] = i + 1
	}
	for _, chat := range matches {
		fmt.Fprintf(a.out, "  %2d. %s (%d messages)\n", position[chat.ID], chat.Title, len(chat.Messages))
	}
}

func (a *app) printHistory() {
	chat, ok := a.store.Current()
	if !ok {
		fmt.Fprintln(a.out, "No chat selected.")
		return
	}
	fmt.Fprintf(a.out, "== %s ==\n", chat.Title)
	for _, m := range chat.Messages {
		fmt.Fprintf(a.out, "[%s] %s\n", m.Role, m.Content)
		for _, att := range m.Attachments {
			fmt.Fprintf(a.out, "    attachment: %s %s\n", att.Name, att.URL)
		}
	}
}

// resolveChat accepts a 1-based position from /list or a chat id.
func (a *app) resolveChat(ref string) (string, bool) {
	chats := a.store.Chats()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(chats) {
		return chats[n-1].ID, true
	}
	for _, chat := range chats {
		if chat.ID == ref {
			return chat.ID, true
		}
	}
	fmt.Fprintf(a.out, "No such chat: %q\n", ref)
	return "", false
}
