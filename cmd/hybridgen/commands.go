package main

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/metrics"
	"hybrid-image-generator/internal/pipeline"
)

func newHybridCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "hybrid IMAGE_A IMAGE_B",
		Short: "Combine the low frequencies of A with the high frequencies of B",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imgA, imgB, err := a.loadPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.fail(err)
			}

			gen, err := pipeline.NewGenerator(a.cfg, a.logger, a.debugger)
			if err != nil {
				return a.fail(err)
			}
			result, err := gen.Hybrid(imgA, imgB)
			if err != nil {
				return a.fail(err)
			}
			return a.save(cmd, result, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path")
	_ = cmd.MarkFlagRequired("output")
	a.cfg.BindHybridFlags(cmd.Flags())
	a.cfg.BindInputFlags(cmd.Flags())
	return cmd
}

func newMorphCmd(a *app) *cobra.Command {
	var output, pointsPath string

	cmd := &cobra.Command{
		Use:   "morph IMAGE_A IMAGE_B",
		Short: "Cascade the frames of a morph from A to B into one multi-scale composite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imgA, imgB, err := a.loadPair(cmd.Context(), args[0], args[1])
			if err != nil {
				return a.fail(err)
			}

			pa, pb := pipeline.CornerPoints(imgA), pipeline.CornerPoints(imgB)
			if pointsPath != "" {
				if pa, pb, err = loadPoints(pointsPath); err != nil {
					return a.fail(err)
				}
			}

			gen, err := pipeline.NewGenerator(a.cfg, a.logger, a.debugger)
			if err != nil {
				return a.fail(err)
			}
			result, err := gen.Morph(pipeline.DissolveFrames{}, imgA, pa, imgB, pb)
			if err != nil {
				return a.fail(err)
			}
			return a.save(cmd, result, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path")
	cmd.Flags().StringVar(&pointsPath, "points", "", "YAML file with control points for both images")
	_ = cmd.MarkFlagRequired("output")
	a.cfg.BindMorphFlags(cmd.Flags())
	a.cfg.BindInputFlags(cmd.Flags())
	return cmd
}

func newFilterCmd(a *app) *cobra.Command {
	var output string
	var steps []string

	cmd := &cobra.Command{
		Use:   "filter IMAGE",
		Short: "Apply registered single-image algorithms in order",
		Example: "  hybridgen filter in.png -o out.png --step grayscale --step stack_blur:radius=6\n" +
			"  hybridgen filter in.png -o out.png --step gaussian:size=7,sigma=2",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pipeline.New(a.logger, a.debugger)
			for _, s := range steps {
				name, params, err := parseStep(s)
				if err != nil {
					return a.fail(err)
				}
				if err := p.AddStep(name, params); err != nil {
					return a.fail(err)
				}
			}

			input, err := a.load(args[0])
			if err != nil {
				return a.fail(err)
			}
			result, values, err := p.Run(cmd.Context(), input)
			if err != nil {
				return a.fail(err)
			}
			a.logger.WithFields(logrus.Fields(lo.MapValues(values, func(v float64, _ string) interface{} {
				if math.IsInf(v, 0) {
					return "inf"
				}
				return v
			}))).Debug("Step metrics")

			return a.save(cmd, result, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "processing step as name[:key=value,...], repeatable")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("step")
	return cmd
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the registered algorithms and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printAlgorithms(cmd)
			return nil
		},
	}
}

func printAlgorithms(cmd *cobra.Command) {
	categories := algorithms.GetAlgorithmsByCategory()
	names := lo.Keys(categories)
	sort.Strings(names)
	w := cmd.OutOrStdout()

	for _, category := range names {
		fmt.Fprintf(w, "%s:\n", category)
		for _, name := range categories[category] {
			alg, ok := algorithms.Get(name)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-14s %d input(s)  %s\n", name, alg.Arity(), alg.GetDescription())
			for _, p := range alg.GetParameterInfo() {
				fmt.Fprintf(w, "      %-10s %-5s default %v%s  %s\n", p.Name, p.Type, p.Default, paramRange(p), p.Description)
			}
		}
	}

	eval := metrics.NewEvaluator()
	info := eval.GetMetricInfo()
	fmt.Fprintln(w, "Metrics (logged with --debug):")
	for _, name := range eval.Names() {
		m := info[name]
		better := "lower is better"
		if m.HigherBetter {
			better = "higher is better"
		}
		fmt.Fprintf(w, "  %-14s [%v..%v] %s  %s\n", name, m.Range[0], m.Range[1], better, m.Description)
	}
}

func paramRange(p algorithms.ParameterInfo) string {
	if p.Min == nil && p.Max == nil {
		return ""
	}
	return fmt.Sprintf(" [%v..%v]", p.Min, p.Max)
}

// parseStep reads "name" or "name:key=value,key=value". Values are booleans
// or numbers.
func parseStep(s string) (string, map[string]interface{}, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(s), ":")
	if name == "" {
		return "", nil, fmt.Errorf("step %q has no algorithm name", s)
	}

	params := make(map[string]interface{})
	pairs := lo.Compact(lo.Map(strings.Split(rest, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("step %q: parameter %q is not key=value", s, pair)
		}
		value, err := parseValue(raw)
		if err != nil {
			return "", nil, fmt.Errorf("step %q: parameter %s: %w", s, key, err)
		}
		params[key] = value
	}
	return name, params, nil
}
