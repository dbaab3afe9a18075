package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

func (cli *commandLine) ask(ctx context.Context, query, role, userID string, width int) error {
	r, ok := session.ParseRole(role)
	if !ok {
		return errors.Wrapf(session.ErrInvalidRole, "%q", role)
	}
	if userID == "" {
		userID = cli.conf.Session.DefaultUserID
	}

	body, err := cli.classifier.Classify(ctx, chat.Query{Text: query, UserID: userID, Role: string(r)})
	if err != nil {
		return errors.Wrap(err, "classifying query")
	}
	reply := chat.DecodeReply(body)
	msg := chat.NewAssistantMessage(reply.Text, reply.Attachments())

	md := replyMarkdown(msg, width)
	if isTerminal(cli.out) {
		md = renderMarkdown(md)
	}
	_, err = fmt.Fprint(cli.out, md)
	return err
}

// replyMarkdown lays msg out for a terminal: its table (if any) as a markdown table followed
// by its bar chart, otherwise the content itself; then the attachment links.
func replyMarkdown(msg chat.Message, width int) string {
	var sb strings.Builder
	if tbl, ok := chat.ExtractTable(msg.Content); ok {
		sb.WriteString(tbl.Markdown())
		if !chat.HasEmbeddedChart(msg) {
			if chart, ok := chat.BuildBarChart(tbl); ok {
				fmt.Fprintf(&sb, "\n%s:\n\n```\n%s```\n", chart.Column, chart.Text(width))
			}
		}
	} else {
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n")
	}

	for i, at := range msg.Attachments {
		if i == 0 {
			sb.WriteString("\n")
		}
		link := at.URL
		if strings.HasPrefix(link, "data:") {
			link = "(inline " + strings.SplitN(strings.TrimPrefix(link, "data:"), ";", 2)[0] + ")"
		}
		fmt.Fprintf(&sb, "- attachment %d: %s\n", i+1, link)
	}
	return sb.String()
}

func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
