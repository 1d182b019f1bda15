package cmd

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tcmdx/internal/consult"
	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/session"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Run an interactive consultation in the terminal",
	Long: `Reads one message per line and prints the reply with the current diagnosis.

Commands:
  /image <path>   attach a tongue or face photograph to the next message
  /state          print the saved conversation context
  /reset          start over
  /quit           exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		userID, _ := cmd.Flags().GetString("user")
		resume, _ := cmd.Flags().GetBool("resume")
		r := &repl{
			svc:    rt.consult,
			userID: userID,
			out:    cmd.OutOrStdout(),
		}
		if !resume {
			r.reset()
		}
		return r.run(ctx, cmd.InOrStdin())
	},
}

func init() {
	consultCmd.Flags().String("user", "cli", "Conversation id used for the server-side copy")
	consultCmd.Flags().Bool("resume", false, "Continue from the stored context of --user")
}

type repl struct {
	svc    *consult.Service
	userID string
	out    io.Writer

	saved   json.RawMessage
	history []llm.Message
	images  []string
}

func (r *repl) reset() {
	// An explicit empty context keeps the stored one from being resumed.
	r.saved, _ = json.Marshal(session.Empty())
	r.history = nil
	r.images = nil
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, "请描述您的不适（/quit 退出）")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(line)
			if err != nil {
				fmt.Fprintln(r.out, "error:", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.turn(ctx, line); err != nil {
			return err
		}
	}
}

func (r *repl) command(line string) (quit bool, err error) {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/reset":
		r.reset()
		fmt.Fprintln(r.out, "已重新开始。")
	case "/state":
		if len(r.saved) == 0 {
			fmt.Fprintln(r.out, "(stored context)")
			return false, nil
		}
		fmt.Fprintln(r.out, string(r.saved))
	case "/image":
		data, err := os.ReadFile(strings.TrimSpace(arg))
		if err != nil {
			return false, err
		}
		r.images = append(r.images, base64.StdEncoding.EncodeToString(data))
		fmt.Fprintf(r.out, "已附加图片（%d 张待发送）\n", len(r.images))
	default:
		return false, fmt.Errorf("unknown command %s", name)
	}
	return false, nil
}

func (r *repl) turn(ctx context.Context, text string) error {
	res, err := r.svc.Turn(ctx, consult.TurnInput{
		UserID:       r.userID,
		Text:         text,
		Images:       r.images,
		SavedContext: r.saved,
		History:      r.history,
	})
	if err != nil {
		return err
	}
	r.images = nil

	if res.HasUpdate {
		data, err := json.Marshal(res.Context)
		if err != nil {
			return err
		}
		r.saved = data
	} else if len(r.saved) == 0 {
		// Resumed without an update: keep using the context the turn started from.
		r.saved, _ = json.Marshal(res.Context)
	}
	r.history = append(r.history,
		llm.Message{Role: llm.RoleUser, Content: text},
		llm.Message{Role: llm.RoleAssistant, Content: res.Reply},
	)

	fmt.Fprintln(r.out, res.Reply)
	fmt.Fprintf(r.out, "  [%s] %s\n", res.Diagnosis.Directive.Status, describe(res.Diagnosis.Pattern(), res.Diagnosis.Score(), res.Terms))
	return nil
}

func describe(pattern string, score int, terms []string) string {
	var b strings.Builder
	if pattern != "" {
		fmt.Fprintf(&b, "%s (%d)  ", pattern, score)
	}
	fmt.Fprintf(&b, "症状: %s", strings.Join(terms, "、"))
	return b.String()
}
