package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arn-lab/gopgm/compiler"
	"github.com/arn-lab/gopgm/core"
	"github.com/arn-lab/gopgm/smc"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <model.json>",
		Short: "Validate a model description without compiling it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			c := compiler.New()
			if err := c.CheckModel(m); err != nil {
				logger.Error("check_model failed", zap.Error(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <model.json>",
		Short: "Compile a model and print its node table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compileFromFile(args[0])
			if err != nil {
				return err
			}
			return printNodes(cmd, c)
		},
	}
}

func compileFromFile(path string) (*compiler.Console, error) {
	m, err := loadModel(path)
	if err != nil {
		return nil, err
	}
	c := compiler.New()
	if err := c.Compile(m); err != nil {
		logger.Error("compile failed", zap.Error(err))
		return nil, err
	}
	logger.Info("model compiled", zap.Int("nodes", nodeCount(c)))
	return c, nil
}

func nodeCount(c *compiler.Console) int {
	nodes, err := c.DumpNodes()
	if err != nil {
		return 0
	}
	return len(nodes)
}

func printNodes(cmd *cobra.Command, c *compiler.Console) error {
	nodes, err := c.DumpNodes()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(nodes)
}

func newRunCmd() *cobra.Command {
	var particles int
	var seed uint64
	var essThreshold float64
	var methodName string
	var backward bool
	var priorOnly bool

	cmd := &cobra.Command{
		Use:   "run <model.json>",
		Short: "Compile, build the sampler, and run the forward (and optionally backward) pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compileFromFile(args[0])
			if err != nil {
				return err
			}
			method, err := parseMethod(methodName)
			if err != nil {
				return err
			}
			if err := c.BuildSampler(priorOnly); err != nil {
				logger.Error("build_sampler failed", zap.Error(err))
				return err
			}
			policy := smc.Policy{Method: method, ESSThreshold: essThreshold}
			if err := c.RunForward(particles, seed, policy); err != nil {
				logger.Error("run_forward failed", zap.Error(err))
				return err
			}
			lognc, err := c.LogNormConst()
			if err != nil {
				return err
			}
			logger.Info("forward pass complete", zap.Float64("log_norm_const", lognc))

			if backward {
				if err := c.RunBackward(); err != nil {
					logger.Error("run_backward failed", zap.Error(err))
					return err
				}
				logger.Info("backward pass complete")
			}
			return printNodes(cmd, c)
		},
	}
	cmd.Flags().IntVar(&particles, "particles", 1000, "particle count")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "RNG seed")
	cmd.Flags().Float64Var(&essThreshold, "ess-threshold", 0.5, "resample when ESS/N falls below this fraction")
	cmd.Flags().StringVar(&methodName, "resample-method", "systematic", "multinomial|residual|stratified|systematic")
	cmd.Flags().BoolVar(&backward, "backward", false, "also run the backward smoother")
	cmd.Flags().BoolVar(&priorOnly, "prior-only", false, "disable conjugate/finite samplers, forcing prior mutation")
	return cmd
}

func parseMethod(name string) (smc.Method, error) {
	switch name {
	case "multinomial":
		return smc.Multinomial, nil
	case "residual":
		return smc.Residual, nil
	case "stratified":
		return smc.Stratified, nil
	case "systematic":
		return smc.Systematic, nil
	default:
		return 0, fmt.Errorf("unknown resample method %q", name)
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <model.json>",
		Short: "Compile a model and print its node table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compileFromFile(args[0])
			if err != nil {
				return err
			}
			return printNodes(cmd, c)
		},
	}
}

func newExtractCmd() *cobra.Command {
	var particles int
	var seed uint64
	var essThreshold float64
	var methodName string
	var node string
	var backward bool
	var statName string

	cmd := &cobra.Command{
		Use:   "extract <model.json>",
		Short: "Run the forward (and optionally backward) pass and extract a monitored statistic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if node == "" {
				return fmt.Errorf("--node is required")
			}
			c, err := compileFromFile(args[0])
			if err != nil {
				return err
			}
			method, err := parseMethod(methodName)
			if err != nil {
				return err
			}
			if err := c.BuildSampler(false); err != nil {
				return err
			}
			if backward {
				if err := c.SetBackwardSmoothMonitor(node, core.FullRange(core.DimArray{1})); err != nil {
					return err
				}
			} else {
				if err := c.SetFilterMonitor(node, core.FullRange(core.DimArray{1})); err != nil {
					return err
				}
			}
			policy := smc.Policy{Method: method, ESSThreshold: essThreshold}
			if err := c.RunForward(particles, seed, policy); err != nil {
				logger.Error("run_forward failed", zap.Error(err))
				return err
			}
			if backward {
				if err := c.RunBackward(); err != nil {
					logger.Error("run_backward failed", zap.Error(err))
					return err
				}
			}
			tag, err := parseStat(statName)
			if err != nil {
				return err
			}
			var values []float64
			if backward {
				values, err = c.ExtractBackwardSmoothStat(node, tag)
			} else {
				values, err = c.ExtractFilterStat(node, tag)
			}
			if err != nil {
				logger.Error("extract_stat failed", zap.Error(err))
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}
	cmd.Flags().IntVar(&particles, "particles", 1000, "particle count")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "RNG seed")
	cmd.Flags().Float64Var(&essThreshold, "ess-threshold", 0.5, "resample when ESS/N falls below this fraction")
	cmd.Flags().StringVar(&methodName, "resample-method", "systematic", "multinomial|residual|stratified|systematic")
	cmd.Flags().StringVar(&node, "node", "", "node name to monitor (required)")
	cmd.Flags().BoolVar(&backward, "backward", false, "extract from the backward-smoothed cloud instead of the filter")
	cmd.Flags().StringVar(&statName, "stat", "mean", "mean|variance|skewness|kurtosis")
	return cmd
}

func parseStat(name string) (compiler.StatTag, error) {
	switch name {
	case "mean":
		return compiler.StatMean, nil
	case "variance":
		return compiler.StatVariance, nil
	case "skewness":
		return compiler.StatSkewness, nil
	case "kurtosis":
		return compiler.StatExKurtosis, nil
	default:
		return 0, fmt.Errorf("unknown stat %q", name)
	}
}
