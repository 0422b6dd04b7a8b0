package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/directory"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/invoke"
	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/internal/session"
)

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	agentColor  = color.New(color.FgGreen)
	noteColor   = color.New(color.FgYellow)
)

func chatCmd() *cobra.Command {
	var persona string
	var streaming bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if persona != "" {
				os.Setenv("PARLEY_PERSONA", persona)
				config.ResetEnv()
			}
			if streaming {
				os.Setenv("PARLEY_STREAMING", "1")
				config.ResetEnv()
			}
			return runChat(cmd)
		},
	}
	cmd.Flags().StringVarP(&persona, "persona", "p", "", "persona to chat with (scribe, artisan, analyst)")
	cmd.Flags().BoolVar(&streaming, "stream", false, "use streaming invocations")
	return cmd
}

func runChat(cmd *cobra.Command) error {
	env := config.Env()

	store, err := openStore()
	if err != nil {
		return err
	}

	invoker := invoke.New(env.AgentURL, env.APIKey)
	engine := session.New(invoker, store, session.Config{
		Persona:   domain.Persona(env.Persona),
		SaveDelay: env.SaveDelay,
		Streaming: env.Streaming,
	})

	shutdowner := runtime.NewShutdowner()
	shutdowner.RegisterSimple("store", store.Close)
	shutdowner.RegisterSimple("session", engine.Close)
	shutdowner.ListenForSignals()
	defer shutdowner.Shutdown()

	dir := directory.New(store, env.DirectoryLimit)
	if _, err := dir.Refresh(cmd.Context(), ""); err != nil {
		noteColor.Println("(directory unavailable:", err, ")")
	}

	for _, msg := range engine.Messages() {
		printMessage(msg)
	}
	noteColor.Println("Commands: /new /load <id> /persona <name> /threads /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Printf("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "/") {
			if quit := runSlashCommand(cmd.Context(), engine, dir, line); quit {
				break
			}
			continue
		}

		reply, err := engine.Submit(cmd.Context(), line)
		switch {
		case errors.Is(err, session.ErrEmptyPrompt):
			continue
		case errors.Is(err, session.ErrBusy):
			noteColor.Println("(still waiting on the previous reply)")
			continue
		case err != nil:
			return err
		}
		printMessage(reply)
	}
	return scanner.Err()
}

func runSlashCommand(ctx context.Context, engine *session.Engine, dir *directory.Cache, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/new":
		if err := engine.StartNew(); err != nil {
			noteColor.Println(err)
			return false
		}
		noteColor.Println("started", engine.ThreadID())
		for _, msg := range engine.Messages() {
			printMessage(msg)
		}

	case "/persona":
		if len(fields) < 2 {
			noteColor.Println("usage: /persona <scribe|artisan|analyst>")
			return false
		}
		if err := engine.SetPersona(domain.Persona(fields[1])); err != nil {
			noteColor.Println(err)
			return false
		}
		noteColor.Println("persona set to", fields[1])

	case "/load":
		if len(fields) < 2 {
			noteColor.Println("usage: /load <thread-id>")
			return false
		}
		if err := engine.Load(ctx, fields[1]); err != nil {
			noteColor.Println(err)
			return false
		}
		for _, msg := range engine.Messages() {
			printMessage(msg)
		}

	case "/threads":
		summaries, err := dir.Refresh(ctx, "")
		if err != nil {
			noteColor.Println(err)
			return false
		}
		printSummaries(summaries)

	default:
		noteColor.Println("unknown command:", fields[0])
	}
	return false
}

func printMessage(msg domain.Message) {
	if msg.Sender == domain.SenderUser {
		promptColor.Printf("you> ")
		fmt.Println(msg.Text)
		return
	}
	agentColor.Println(msg.Text)
}

func printSummaries(summaries []domain.Summary) {
	if len(summaries) == 0 {
		fmt.Println("no saved conversations")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%s  %-8s %3d msgs  %s\n", s.ThreadID, s.Persona, s.MessageCount, s.Preview)
	}
}
