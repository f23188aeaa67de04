package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"assistant/internal/config"
	"assistant/internal/store"
	"assistant/internal/types"
)

// inspectcache dumps the local snapshot and pending stream marker. An
// optional argument filters the printed messages by client message id.
func main() {
	target := ""
	if len(os.Args) > 1 {
		target = strings.TrimSpace(os.Args[1])
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	storagePath, err := cfg.StoragePath()
	if err != nil {
		panic(err)
	}
	snapshots, err := store.Open(store.StoreConfig{Backend: cfg.StorageBackend(), Path: storagePath})
	if err != nil {
		panic(err)
	}
	defer snapshots.Close()
	ctx := context.Background()

	fmt.Printf("backend=%s path=%s\n", snapshots.Backend(), storagePath)

	pending, err := snapshots.LoadPendingStream(ctx)
	if err != nil {
		panic(err)
	}
	if pending != nil {
		fmt.Printf("pending stream: id=%s reference=%s\n", pending.StreamID, pending.Reference)
	} else {
		fmt.Println("pending stream: none")
	}

	snapshot, err := snapshots.LoadSnapshot(ctx)
	if err != nil {
		panic(err)
	}
	if snapshot == nil {
		fmt.Println("snapshot: none")
		return
	}
	fmt.Printf("snapshot: user=%s reference=%s server_count=%d cached=%d\n",
		snapshot.User.Email, snapshot.CurrentReference, snapshot.MessageCountAtLastSync, len(snapshot.Messages))

	unacked := 0
	for _, msg := range snapshot.Messages {
		if !msg.HasSequence() {
			unacked++
		}
		if target != "" && msg.ClientMessageID != target {
			continue
		}
		printMessage(msg)
	}
	fmt.Printf("unacknowledged=%d\n", unacked)
}

func printMessage(msg types.Message) {
	seq := "-"
	if value, ok := msg.SequenceValue(); ok {
		seq = fmt.Sprintf("%d", value)
	}
	content := []rune(strings.ReplaceAll(msg.Content, "\n", " "))
	if len(content) > 60 {
		content = append(content[:60], []rune("...")...)
	}
	fmt.Printf("  id=%s seq=%s role=%s tools=%d content=%q\n", msg.ClientMessageID, seq, msg.Role, len(msg.ProcessInfos), string(content))
}
