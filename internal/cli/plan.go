package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/adiclip/internal/config"
	"github.com/alnah/adiclip/internal/format"
	"github.com/alnah/adiclip/internal/label"
	"github.com/alnah/adiclip/internal/manifest"
)

// PlanCmd creates the plan command: a dry run that loads and groups the
// manifests without invoking any external tool.
func PlanCmd(env *Env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the videos and segments a run would process",
		Long: `Load and join the manifests, group segments by source video, and print
one row per video. Nothing is fetched or written.`,
		Example: `  adiclip plan
  adiclip plan --limit 50 --drop-unlabeled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, env, opts)
		},
	}

	bindConfigFlags(cmd, config.KeySegments, config.KeyLabels, config.KeyLimit, config.KeyFailureLog)
	cmd.Flags().BoolVar(&opts.dropUnlabeled, "drop-unlabeled", false, "Skip segments without a label instead of labeling them unknown")
	cmd.Flags().BoolVar(&opts.retryFailed, "retry-failed", false, "Show only the videos listed in the failure log")

	return cmd
}

func runPlan(cmd *cobra.Command, env *Env, opts runOptions) error {
	cfg, err := resolveConfig(cmd, env)
	if err != nil {
		return err
	}

	m, groups, err := loadWork(cfg, opts.dropUnlabeled)
	if err != nil {
		return err
	}
	if opts.retryFailed {
		if groups, err = onlyFailed(cfg.FailureLog, groups); err != nil {
			return err
		}
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		var span float64
		var labels []string
		for _, s := range g.Segments {
			span += s.Duration()
			if l := labelColumn(s.Label); !slices.Contains(labels, l) {
				labels = append(labels, l)
			}
		}
		rows = append(rows, []string{
			g.VideoID,
			strconv.Itoa(len(g.Segments)),
			strings.Join(labels, ", "),
			format.Seconds(span),
		})
	}

	if len(rows) > 0 {
		fmt.Fprintln(env.Stdout, renderTable(
			[]string{"Video", "Segments", "Labels", "Audio"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
		))
	}
	fmt.Fprintf(env.Stdout, "%s, %s (%d unlabeled, policy %s)\n",
		format.Count(len(groups), "video", "videos"),
		format.Count(countSegments(groups), "segment", "segments"),
		m.Unlabeled,
		policyName(opts.dropUnlabeled))
	return nil
}

// labelColumn shows a known dialect code with its name, e.g. "EGY (Egyptian)".
func labelColumn(l string) string {
	if name := label.DisplayName(l); name != l {
		return l + " (" + name + ")"
	}
	return l
}

func policyName(dropUnlabeled bool) string {
	if dropUnlabeled {
		return manifest.Strict.String()
	}
	return manifest.Lenient.String()
}
