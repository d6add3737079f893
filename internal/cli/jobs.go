package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localcortex/lattice/internal/job"
)

var jobStatusFilter string

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and control background indexing jobs",
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, optionally filtered by status",
	RunE:  runJobList,
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show a single job's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending or running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobCancel,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobListCmd, jobStatusCmd, jobCancelCmd)
	jobListCmd.Flags().StringVar(&jobStatusFilter, "status", "", "filter by status: pending, running, completed, failed, cancelled")
}

func runJobList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	return printJSON(a.Jobs.ListJobs(job.Status(jobStatusFilter)))
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	j, err := a.Jobs.GetJob(args[0])
	if err != nil {
		return err
	}
	return printJSON(j)
}

func runJobCancel(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	j, err := a.Jobs.CancelJob(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("job %s cancelled\n", j.ID)
	return nil
}
