package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/session"
)

// requestTimeout bounds the one-shot requests issued from the UI
const requestTimeout = 30 * time.Second

// FetchUpdatesCmd performs one update request off the update loop
func FetchUpdatesCmd(client domain.LibraryClient, fetch session.Fetch) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		in := fetch.Execute(context.Background(), client)
		elapsed := time.Since(start)

		switch in := in.(type) {
		case session.FetchFailed:
			return UpdatesFailedMsg{Input: in, Duration: elapsed}
		case session.BatchReceived:
			return UpdatesLoadedMsg{Input: in, Duration: elapsed}
		default:
			return ErrMsg{Context: "fetch updates", Err: fmt.Errorf("unexpected input %T", in)}
		}
	}
}

// SyncRequestCmd requests a sync immediately
func SyncRequestCmd(seq int) tea.Cmd {
	return func() tea.Msg {
		return SyncRequestMsg{Seq: seq}
	}
}

// ScheduleSyncCmd requests a sync after delay
func ScheduleSyncCmd(seq int, delay time.Duration) tea.Cmd {
	if delay <= 0 {
		return SyncRequestCmd(seq)
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return SyncRequestMsg{Seq: seq}
	})
}

// DeleteComicsCmd flags comics for deletion on the server
func DeleteComicsCmd(client domain.LibraryClient, ids []int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := client.DeleteComics(ctx, ids)
		return ComicsDeletedMsg{IDs: ids, Err: err}
	}
}

// LoadComicCmd fetches the server copy of a single comic
func LoadComicCmd(client domain.LibraryClient, id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		comic, err := client.GetComic(ctx, id)
		return ComicDetailMsg{Comic: comic, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
