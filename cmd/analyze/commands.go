package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domain "github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/events"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/telemetry"
	"github.com/davidleathers/analysis-orchestrator/internal/service"
	"github.com/davidleathers/analysis-orchestrator/internal/service/analysis"
)

// notificationBuffer bounds how many notifications one run can report
const notificationBuffer = 64

type rootOptions struct {
	configPath string
	logLevel   string
}

type requestOptions struct {
	file   string
	format string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "analyze",
		Short:         "Run civilization analyses from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newCapabilitiesCmd(opts))
	return root
}

func newRunCmd(root *rootOptions) *cobra.Command {
	req := &requestOptions{}
	var (
		pretty        bool
		notifications bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Perform an analysis and print the response as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			request, err := req.read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runAnalysis(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, request, pretty, notifications)
		},
	}
	req.bind(cmd)
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the response")
	cmd.Flags().BoolVar(&notifications, "notifications", false, "Print triggered notifications to stderr")
	return cmd
}

func runAnalysis(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *zap.Logger, req *domain.Request, pretty, printNotifications bool) error {
	factories, err := service.NewServiceFactories(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := factories.Close(); err != nil {
			logger.Warn("closing infrastructure failed", zap.Error(err))
		}
	}()

	sink := events.NewChannelNotifier(notificationBuffer)
	factories.AddNotificationSinks(sink)
	svc, err := factories.CreateAnalysisService(ctx)
	if err != nil {
		return err
	}

	resp, err := svc.PerformAnalysis(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err := writeJSON(stdout, resp, pretty); err != nil {
		return err
	}

	if err := svc.FlushNotifications(ctx); err != nil {
		logger.Warn("notifications still pending", zap.Error(err))
	}
	if !printNotifications {
		return nil
	}
	for {
		select {
		case n := <-sink.C():
			if err := writeJSON(stderr, n, false); err != nil {
				return err
			}
		default:
			if dropped := sink.Dropped(); dropped > 0 {
				fmt.Fprintf(stderr, "%d notifications dropped\n", dropped)
			}
			return nil
		}
	}
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	req := &requestOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a request without running it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			request, err := req.read(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := request.CheckEnvelope(); err != nil {
				return err
			}
			inputs, err := domain.ValidateInputs(&request.DataInputs)
			if err != nil {
				return err
			}

			engine, err := analysis.NewEngine(service.EngineConfig(cfg), analysis.WithLogger(logger))
			if err != nil {
				return err
			}
			if !slices.Contains(engine.Capabilities().AnalysisTypes, string(request.Type)) {
				return fmt.Errorf("unsupported analysis type %q", request.Type)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request is valid\n")
			fmt.Fprintf(out, "  Type:        %s\n", request.Type)
			fmt.Fprintf(out, "  Scope:       %s\n", request.Scope)
			fmt.Fprintf(out, "  Domains:     %s\n", strings.Join(presentDomains(inputs), ", "))
			fmt.Fprintf(out, "  Data points: %d\n", inputs.CountDataPoints())
			return nil
		},
	}
	req.bind(cmd)
	return cmd
}

func newCapabilitiesCmd(root *rootOptions) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Print supported analysis types, inputs and features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			engine, err := analysis.NewEngine(service.EngineConfig(cfg), analysis.WithLogger(logger))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.Capabilities(), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "Indent the output")
	return cmd
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := telemetry.NewLogger(level, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (o *requestOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Request file, or - for stdin")
	cmd.Flags().StringVar(&o.format, "format", "", "Request format: json or yaml (default from the file extension)")
	_ = cmd.MarkFlagRequired("file")
}

// read decodes a request. YAML documents are converted to JSON first so both
// formats share the request's JSON field names. Requests without an id get a
// generated one.
func (o *requestOptions) read(stdin io.Reader) (*domain.Request, error) {
	var (
		raw []byte
		err error
	)
	if o.file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(o.file)
	}
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}

	format := strings.ToLower(o.format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(o.file)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "json"
		}
	}

	switch format {
	case "json":
	case "yaml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml request: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("converting yaml request: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown request format %q", o.format)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var req domain.Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	if req.ID != "" {
		return &req, nil
	}

	stamped := domain.NewRequest(req.Type, req.Scope, req.DataInputs)
	stamped.Options = req.Options
	stamped.RequestedBy = req.RequestedBy
	if !req.Timestamp.IsZero() {
		stamped.Timestamp = req.Timestamp
	}
	return stamped, nil
}

func presentDomains(in *domain.DataInputs) []string {
	var out []string
	for _, d := range in.Present() {
		out = append(out, string(d))
	}
	if len(out) == 0 {
		return []string{"none"}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
