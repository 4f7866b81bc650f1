package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	replyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chatUsername = "cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func runChat(ctx context.Context) error {
	a, err := buildApp(rootCmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.condenser != nil {
		if err := a.condenser.Start(); err != nil {
			fmt.Println(errorStyle.Render("memory sweeps disabled: " + err.Error()))
		}
	}
	if err := a.cache.Watch(); err != nil {
		fmt.Println(subtleStyle.Render("tools watcher unavailable: " + err.Error()))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(bannerStyle.Render(fmt.Sprintf("boop %s", a.cfg.Version)))
	fmt.Println(subtleStyle.Render("Ask for anything. Type /tools to list tools, /quit to leave."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			fmt.Println(subtleStyle.Render("bye!"))
			return nil
		case "/tools":
			printTools(ctx, a)
			continue
		}

		reply := a.dispatcher.HandleMessage(ctx, chatUsername, line)
		fmt.Println(replyStyle.Render("boop> " + reply))

		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		default:
		}
	}
}

func printTools(ctx context.Context, a *app) {
	tools, err := a.cache.Get(ctx)
	if err != nil {
		fmt.Println(errorStyle.Render("could not list tools: " + err.Error()))
		return
	}
	if len(tools) == 0 {
		fmt.Println(subtleStyle.Render("no tools installed yet"))
		return
	}
	for _, t := range tools {
		fmt.Println(promptStyle.Render(t.Name))
		if t.Summary != "" {
			fmt.Println(subtleStyle.Render("  " + firstLine(t.Summary)))
		}
		for _, f := range t.Functions {
			fmt.Printf("  %s(%s)\n", f.Name, strings.Join(f.Parameters, ", "))
		}
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
