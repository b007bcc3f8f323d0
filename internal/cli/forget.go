package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lazypower/ephemeral/internal/capture"
	"github.com/lazypower/ephemeral/internal/client"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
	"github.com/lazypower/ephemeral/internal/tui"
)

const maxTextBytes = 1 << 20

var (
	forgetAlgorithm string
	forgetImage     string
	forgetAudio     string
	forgetSeed      uint64
	forgetRemote    bool
	forgetURL       string
)

var forgetCmd = &cobra.Command{
	Use:   "forget [text...]",
	Short: "Decay a memory and archive its trace",
	Long: "Decay text, a PNG image or an audio file until nothing is left. " +
		"Text comes from the arguments or, when there are none, from stdin.",
	RunE: runForget,
}

func init() {
	forgetCmd.Flags().StringVarP(&forgetAlgorithm, "algorithm", "a", "", "forgetting algorithm (random when empty)")
	forgetCmd.Flags().StringVar(&forgetImage, "image", "", "PNG file to forget")
	forgetCmd.Flags().StringVar(&forgetAudio, "audio", "", "audio file to forget")
	forgetCmd.Flags().Uint64Var(&forgetSeed, "seed", 0, "random seed (overrides config)")
	forgetCmd.Flags().BoolVar(&forgetRemote, "remote", false, "send to a running ephemeral server instead")
	forgetCmd.Flags().StringVar(&forgetURL, "url", "", "server URL for --remote (default $EPHEMERAL_URL)")
	forgetCmd.MarkFlagsMutuallyExclusive("image", "audio")
}

// memoryInput is what the user asked to forget, both as raw bytes for the
// server and as decoded content for a local engine.
type memoryInput struct {
	content decay.Content
	request client.ForgetRequest
}

func readMemory(stdin io.Reader, args []string, imagePath, audioPath string) (memoryInput, error) {
	switch {
	case imagePath != "":
		raw, err := os.ReadFile(imagePath)
		if err != nil {
			return memoryInput{}, fmt.Errorf("read image: %w", err)
		}
		c, err := capture.FromPNG(bytes.NewReader(raw))
		if err != nil {
			return memoryInput{}, err
		}
		return memoryInput{content: c, request: client.ForgetRequest{ContentType: decay.Image, Data: raw}}, nil
	case audioPath != "":
		raw, err := os.ReadFile(audioPath)
		if err != nil {
			return memoryInput{}, fmt.Errorf("read audio: %w", err)
		}
		c, err := capture.FromAudio(bytes.NewReader(raw))
		if err != nil {
			return memoryInput{}, err
		}
		return memoryInput{content: c, request: client.ForgetRequest{ContentType: decay.Audio, Data: raw}}, nil
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return memoryInput{}, errNoInput
		}
		data, err := readAllLimited(stdin, maxTextBytes)
		if err != nil {
			return memoryInput{}, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	c, err := capture.FromText(text)
	if errors.Is(err, capture.ErrEmpty) {
		return memoryInput{}, errNoInput
	}
	if err != nil {
		return memoryInput{}, err
	}
	return memoryInput{content: c, request: client.ForgetRequest{ContentType: decay.Text, Text: c.Text}}, nil
}

func runForget(cmd *cobra.Command, args []string) error {
	in, err := readMemory(cmd.InOrStdin(), args, forgetImage, forgetAudio)
	if err != nil {
		return err
	}
	in.request.Algorithm = forgetAlgorithm

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if forgetRemote {
		return forgetRemotely(ctx, cmd.OutOrStdout(), in.request)
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	lock := flock.New(a.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another ephemeral process is already forgetting; try again when it finishes")
	}
	defer lock.Unlock()

	if forgetSeed != 0 {
		a.cfg.Engine.Seed = forgetSeed
	}
	eng, err := a.newEngine(nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	interactive := isTerminal(out)
	if !interactive {
		eng.AddObserver(tui.NewLines(out))
	}
	events, unsubscribe := eng.Subscribe(256)
	defer unsubscribe()

	snap, ok := eng.Start(ctx, in.content, forgetAlgorithm)
	if !ok {
		return ctx.Err()
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go eng.Run(runCtx)

	if interactive {
		return watchTUI(ctx, cmd, events, eng, snap)
	}
	return waitSettled(ctx, events)
}

func watchTUI(ctx context.Context, cmd *cobra.Command, events <-chan engine.Event, eng *engine.Engine, snap engine.Snapshot) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())}
	if f, ok := cmd.InOrStdin().(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		// Text was piped in; keys come from the terminal itself.
		opts = append(opts, tea.WithInputTTY())
	}
	final, err := tea.NewProgram(tui.New(events, eng, snap), opts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("render: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Interrupted() {
		fmt.Fprintln(cmd.ErrOrStderr(), "stopped before the end; nothing was archived")
	}
	return nil
}

func waitSettled(ctx context.Context, events <-chan engine.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.EventType() == engine.EventSettled {
				return nil
			}
		}
	}
}

func forgetRemotely(ctx context.Context, w io.Writer, req client.ForgetRequest) error {
	c := client.NewClient(forgetURL)
	res, err := c.Forget(ctx, req)
	if errors.Is(err, client.ErrBusy) {
		return fmt.Errorf("%s is busy forgetting something else", c.URL())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "session %s started on %s (%s)\n", res.SessionID, c.URL(), decay.NewRegistry().Lookup(res.Algorithm).Name)
	return nil
}
