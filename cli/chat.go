package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Chat is an interactive session for one tenant.
type Chat struct {
	client   *Client
	tenantID string
	in       *bufio.Scanner
	out      io.Writer
	history  []domain.ChatMessage
}

// NewChat creates a session reading commands from in.
func NewChat(client *Client, tenantID string, in io.Reader, out io.Writer) *Chat {
	return &Chat{
		client:   client,
		tenantID: tenantID,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run reads messages until EOF, /quit or ctx is done.
func (c *Chat) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Type a message and press Enter to send.")
	fmt.Fprintln(c.out, "Commands: /tools, /reset, /quit")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}

		input := strings.TrimSpace(c.in.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(c.out, "Bye!")
			return nil
		case "/reset":
			c.history = nil
			fmt.Fprintln(c.out, "Conversation cleared.")
			continue
		case "/tools":
			if err := c.printTools(ctx); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			continue
		}

		if err := c.send(ctx, input); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *Chat) send(ctx context.Context, message string) error {
	resp, err := c.client.Turn(ctx, domain.TurnRequest{
		TenantID:            c.tenantID,
		Message:             message,
		ConversationHistory: c.history,
	})
	if err != nil {
		return err
	}

	c.history = append(c.history,
		domain.ChatMessage{Role: domain.ChatRoleUser, Content: message},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: resp.Response},
	)

	fmt.Fprintln(c.out, resp.Response)
	for _, a := range resp.ClientActions {
		fmt.Fprintf(c.out, "  [%s] %s\n", a.Type, formatPayload(a.Payload))
	}

	if resp.PendingConfirmation != nil {
		return c.confirm(ctx, resp.PendingConfirmation)
	}
	return nil
}

func (c *Chat) confirm(ctx context.Context, p *domain.PendingDescriptor) error {
	fmt.Fprintf(c.out, "%s [y/N] ", p.Description)
	accepted := false
	if c.in.Scan() {
		answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
		accepted = answer == "y" || answer == "yes" || answer == "o" || answer == "oui"
	}

	resp, err := c.client.Confirm(ctx, domain.ConfirmRequest{
		TenantID:     c.tenantID,
		ConfirmToken: p.ConfirmToken,
		Confirmed:    accepted,
	})
	if err != nil {
		return err
	}

	mark := "ok"
	if !resp.Success {
		mark = "failed"
	}
	fmt.Fprintf(c.out, "%s: %s\n", mark, resp.Detail)
	return nil
}

func (c *Chat) printTools(ctx context.Context) error {
	catalog, err := c.client.Tools(ctx)
	if err != nil {
		return err
	}
	printCatalog(c.out, catalog)
	return nil
}

func printCatalog(out io.Writer, catalog []domain.ToolInfo) {
	for _, t := range catalog {
		flag := ""
		if t.RequiresConfirmation {
			flag = " (confirm)"
		}
		fmt.Fprintf(out, "%-24s %-6s %s%s\n", t.Name, t.Kind, t.Description, flag)
	}
}

func formatPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	parts := make([]string, 0, len(payload))
	for k, v := range payload {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
