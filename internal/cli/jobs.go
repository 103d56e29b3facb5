package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziris-labs/ziris/internal/api"
	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/sensor"
	"github.com/ziris-labs/ziris/internal/ui"
)

// jobPollInterval is how often --wait checks a job's status.
var jobPollInterval = time.Second

var (
	jobsSeedRows int
	jobsWait     bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Run and inspect background seed and retrain jobs",
	Long: `Queue seed and retrain jobs on the server and follow their progress.

Examples:
  ziris jobs list
  ziris jobs seed --rows 500 --wait
  ziris jobs retrain
  ziris jobs show 3f2a...`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List background jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		jobs, err := a.client.Jobs(cmd.Context())
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), jobs, func(w io.Writer) {
			if len(jobs) == 0 {
				fmt.Fprintln(w, ui.MutedStyle.Render("No jobs yet"))
				return
			}
			fmt.Fprintln(w, ui.RenderJobTable(jobs))
		})
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		job, err := a.client.Job(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJob(cmd.OutOrStdout(), job)
	},
}

var jobsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Queue a job inserting synthetic sensor rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := parseRows(jobsSeedRows); err != nil {
			return err
		}
		return startJob(cmd, func(ctx context.Context, c *api.Client) (api.JobStart, error) {
			return c.StartSeedJob(ctx, jobsSeedRows)
		})
	},
}

var jobsRetrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Queue a model retrain job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startJob(cmd, func(ctx context.Context, c *api.Client) (api.JobStart, error) {
			return c.StartRetrainJob(ctx)
		})
	},
}

func init() {
	jobsSeedCmd.Flags().IntVar(&jobsSeedRows, "rows", 100, "number of rows to insert")
	for _, c := range []*cobra.Command{jobsSeedCmd, jobsRetrainCmd} {
		c.Flags().BoolVar(&jobsWait, "wait", false, "wait for the job to finish")
	}
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsSeedCmd, jobsRetrainCmd)
	rootCmd.AddCommand(jobsCmd)
}

func startJob(cmd *cobra.Command, start func(ctx context.Context, c *api.Client) (api.JobStart, error)) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	js, err := start(ctx, a.client)
	if err != nil {
		return err
	}
	if !jobsWait {
		return output(cmd.OutOrStdout(), js, func(w io.Writer) {
			ui.PrintSuccess(w, "Queued job %s (%s)", js.JobID, js.Status)
		})
	}

	var job sensor.Job
	status := cmd.ErrOrStderr()
	err = ui.Run(status, "Waiting for job "+js.JobID, !machineMode && isTerminal(status), func() error {
		job, err = waitForJob(ctx, a.client, js.JobID)
		return err
	})
	if err != nil {
		return err
	}
	if err := printJob(cmd.OutOrStdout(), job); err != nil {
		return err
	}
	if job.Status == sensor.JobFailed {
		return errors.New(errors.ErrNetwork, fmt.Sprintf("Job %s failed", job.ID), job.Error)
	}
	return nil
}

// waitForJob polls until the job reaches a terminal status.
func waitForJob(ctx context.Context, c *api.Client, id string) (sensor.Job, error) {
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return sensor.Job{}, err
		}
		if job.Status.Done() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJob(w io.Writer, job sensor.Job) error {
	return output(w, job, func(w io.Writer) {
		fmt.Fprint(w, ui.RenderJob(job))
	})
}
