package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/tui/client"
)

var remoteOpts struct {
	url   string
	token string
	out   string
}

var actionPaths = map[string]string{
	"permission": "permission",
	"start":      "capture/start",
	"retake":     "capture/retake",
	"done":       "capture/done",
	"flip":       "camera/flip",
	"reset":      "reset",
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Drive a running kiosk server",
}

func httpClient() *client.HTTPClient {
	return client.NewHTTPClient(remoteOpts.url, remoteOpts.token)
}

func printState(cmd *cobra.Command, s any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func stateCmd(use, short string, nargs int, call func(cmd *cobra.Command, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := call(cmd, args)
			if err != nil {
				return err
			}
			return printState(cmd, v)
		},
	}
}

func init() {
	pf := remoteCmd.PersistentFlags()
	pf.StringVar(&remoteOpts.url, "url", "http://127.0.0.1:8080", "kiosk server base URL")
	pf.StringVar(&remoteOpts.token, "token", os.Getenv("PHOTOBOOTH_TOKEN"), "auth token (default $PHOTOBOOTH_TOKEN)")

	remoteCmd.AddCommand(
		stateCmd("state", "Print the booth state", 0, func(cmd *cobra.Command, _ []string) (any, error) {
			return httpClient().State(cmd.Context())
		}),
		stateCmd("do <permission|start|retake|done|flip|reset>", "Trigger a booth action", 1, func(cmd *cobra.Command, args []string) (any, error) {
			path, ok := actionPaths[args[0]]
			if !ok {
				return nil, fmt.Errorf("unknown action %q", args[0])
			}
			return httpClient().Action(cmd.Context(), path)
		}),
		stateCmd("filter <name>", "Select the capture filter", 1, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().SetFilter(cmd.Context(), args[0])
		}),
		stateCmd("template <id>", "Select the strip template", 1, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().SetTemplate(cmd.Context(), args[0])
		}),
		stateCmd("background <id>", "Select the strip background", 1, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().SetBackground(cmd.Context(), args[0])
		}),
		stateCmd("text <id> <value>", "Set a caption", 2, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().SetText(cmd.Context(), args[0], args[1])
		}),
		stickerCmd(),
		exportRemoteCmd(),
		stripCmd(),
		watchCmd(),
	)
	rootCmd.AddCommand(remoteCmd)
}

func stickerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sticker", Short: "Add, move or remove stickers"}
	cmd.AddCommand(
		stateCmd("add <glyph>", "Place a sticker at the center", 1, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().AddSticker(cmd.Context(), args[0])
		}),
		stateCmd("move <id> <x> <y>", "Move a sticker, in percent of the strip", 3, func(cmd *cobra.Command, args []string) (any, error) {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return nil, fmt.Errorf("x: %w", err)
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return nil, fmt.Errorf("y: %w", err)
			}
			return httpClient().MoveSticker(cmd.Context(), args[0], x, y)
		}),
		stateCmd("rm <id>", "Remove a sticker", 1, func(cmd *cobra.Command, args []string) (any, error) {
			return httpClient().RemoveSticker(cmd.Context(), args[0])
		}),
	)
	return cmd
}

func exportRemoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Save the strip on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := httpClient().Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func stripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strip",
		Short: "Download the current strip as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(remoteOpts.out)
			if err != nil {
				return err
			}
			if err := httpClient().Strip(cmd.Context(), f); err != nil {
				f.Close()
				os.Remove(remoteOpts.out)
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&remoteOpts.out, "out", "o", "strip.png", "output file")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print booth events as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger("")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			ws := client.NewWSClient(client.WSURL(remoteOpts.url), remoteOpts.token, log)
			ws.Reconnect = true
			out := cmd.OutOrStdout()
			log.Debug("watching", zap.String("url", remoteOpts.url))
			return ws.Watch(cmd.Context(), func(m client.WSMessage) {
				fmt.Fprintln(out, client.Describe(m))
			})
		},
	}
}
