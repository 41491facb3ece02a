package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"deskview/internal/console"
	"deskview/internal/models"
	"deskview/internal/query"
	"deskview/pkg/utils"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Manage automation workflows and their executions",
}

var (
	wfSearch   string
	wfStatus   string
	wfTrigger  string
	wfSortBy   string
	wfSortDesc bool
	wfPage     int
	wfOpen     string
	wfOpenTab  string

	wfYes bool

	wfCreateName  string
	wfCreateDesc  string
	wfCreateTrig  string
	wfCreateSteps []string
)

func init() {
	rootCmd.AddCommand(workflowsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows matching the given filters",
		RunE:  runWorkflowsList,
	}
	listCmd.Flags().StringVar(&wfSearch, "search", "", "free-text search over name and description")
	listCmd.Flags().StringVar(&wfStatus, "status", "", "filter by status (active, inactive, draft)")
	listCmd.Flags().StringVar(&wfTrigger, "trigger", "", "filter by trigger")
	listCmd.Flags().StringVar(&wfSortBy, "sort", "", "sort field (name, status, trigger, created_at, updated_at)")
	listCmd.Flags().BoolVar(&wfSortDesc, "desc", false, "sort descending")
	listCmd.Flags().IntVar(&wfPage, "page", 1, "page to show")
	listCmd.Flags().StringVar(&wfOpen, "open", "", "open this workflow's detail after loading")
	listCmd.Flags().StringVar(&wfOpenTab, "tab", "", "detail tab to open with --open (executions)")
	workflowsCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one workflow and its recent executions",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsShow,
	}
	workflowsCmd.AddCommand(showCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workflow (starts in draft)",
		RunE:  runWorkflowsCreate,
	}
	createCmd.Flags().StringVar(&wfCreateName, "name", "", "workflow name")
	createCmd.Flags().StringVar(&wfCreateDesc, "description", "", "what the workflow does")
	createCmd.Flags().StringVar(&wfCreateTrig, "trigger", "manual", "trigger (manual, ticket_created, ticket_updated, sla_breach, scheduled)")
	createCmd.Flags().StringArrayVar(&wfCreateSteps, "step", nil, "step as kind:name, repeatable (kinds: condition, action, notification)")
	workflowsCmd.AddCommand(createCmd)

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a workflow between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsToggle,
	}
	workflowsCmd.AddCommand(toggleCmd)

	triggerCmd := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Trigger an execution of an active workflow",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsTrigger,
	}
	workflowsCmd.AddCommand(triggerCmd)

	execCmd := &cobra.Command{
		Use:   "execution <id>",
		Short: "Show one execution",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsExecution,
	}
	workflowsCmd.AddCommand(execCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel <execution-id>",
		Short: "Cancel a running execution",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflowsCancel,
	}
	cancelCmd.Flags().BoolVarP(&wfYes, "yes", "y", false, "confirm without prompting")
	workflowsCmd.AddCommand(cancelCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show workflow dashboard counters",
		RunE:  runWorkflowsStats,
	}
	workflowsCmd.AddCommand(statsCmd)
}

func runWorkflowsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()
	view := a.workflows
	if wfOpen != "" {
		view.State().SetIntent(console.OpenIntent{EntityID: wfOpen, Tab: wfOpenTab})
	}
	if err := view.Load(ctx); err != nil {
		return err
	}
	if wfSearch != "" {
		if err := view.SetSearch(wfSearch); err != nil {
			return err
		}
	}
	if wfStatus != "" {
		if err := view.SetStatusFilter(strings.ToLower(wfStatus)); err != nil {
			return err
		}
	}
	if wfTrigger != "" {
		if err := view.SetTriggerFilter(strings.ToLower(wfTrigger)); err != nil {
			return err
		}
	}
	if wfSortBy != "" {
		order := query.SortAsc
		if wfSortDesc {
			order = query.SortDesc
		}
		if err := view.SetSort(wfSortBy, order); err != nil {
			return err
		}
	}
	if wfPage > 1 {
		if err := view.SetPage(wfPage); err != nil {
			return err
		}
	}

	page := view.Page()
	if page == nil {
		fmt.Println("no data loaded")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tSTATUS\tSTEPS\tCREATED")
	for _, wf := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			wf.ID, utils.Truncate(wf.Name, 32), wf.Trigger, wf.Status,
			len(wf.Steps), utils.FormatTime(wf.CreatedAt))
	}
	w.Flush()
	win := page.Window
	fmt.Printf("\nShowing %d-%d of %d (page %d/%d)\n", win.From, win.To, win.Total, view.Criteria().Page, win.TotalPages)

	// deep-link: the consumed intent left a selection to open
	if selected := view.State().Selected(); selected != "" {
		workflow, err := view.Open(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Println()
		printWorkflow(workflow)
		if view.State().ActiveTab() == "executions" {
			printExecutionList(view.Executions())
		}
	}
	return nil
}

func runWorkflowsShow(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()
	if err := a.workflows.Load(ctx); err != nil {
		return err
	}
	workflow, err := a.workflows.Open(ctx, args[0])
	if err != nil {
		return err
	}
	printWorkflow(workflow)
	printExecutionList(a.workflows.Executions())
	return nil
}

func printWorkflow(workflow *models.Workflow) {
	fmt.Printf("Workflow %s\n", workflow.ID)
	fmt.Printf("  Name:        %s\n", workflow.Name)
	fmt.Printf("  Description: %s\n", workflow.Description)
	fmt.Printf("  Trigger:     %s\n", workflow.Trigger)
	fmt.Printf("  Status:      %s\n", workflow.Status)
	for _, step := range workflow.Steps {
		fmt.Printf("    - [%s] %s\n", step.Kind, step.Name)
	}
}

func printExecutionList(executions []models.Execution) {
	if len(executions) == 0 {
		fmt.Println("\nNo executions yet.")
		return
	}
	fmt.Println("\nRecent executions:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION")
	for _, e := range executions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID, e.Status, utils.FormatTime(e.StartedAt), utils.FormatDuration(e.Duration))
	}
	w.Flush()
}

func runWorkflowsCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	steps, err := parseSteps(wfCreateSteps)
	if err != nil {
		return err
	}
	workflow, err := a.workflows.Create(context.Background(), &models.WorkflowCreateRequest{
		Name:        wfCreateName,
		Description: wfCreateDesc,
		Trigger:     models.WorkflowTrigger(strings.ToLower(wfCreateTrig)),
		Steps:       steps,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created workflow %s (status %s)\n", workflow.ID, workflow.Status)
	return nil
}

func parseSteps(raw []string) ([]models.WorkflowStep, error) {
	steps := make([]models.WorkflowStep, 0, len(raw))
	for _, item := range raw {
		kind, name, found := strings.Cut(item, ":")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid step %q, expected kind:name", item)
		}
		steps = append(steps, models.WorkflowStep{
			Name: strings.TrimSpace(name),
			Kind: models.StepKind(strings.TrimSpace(kind)),
		})
	}
	return steps, nil
}

func runWorkflowsToggle(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()
	if err := a.workflows.Load(ctx); err != nil {
		return err
	}
	workflow, err := a.workflows.ToggleStatus(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Workflow %s is now %s\n", workflow.ID, workflow.Status)
	return nil
}

func runWorkflowsTrigger(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()
	if err := a.workflows.Load(ctx); err != nil {
		return err
	}
	execution, err := a.workflows.Trigger(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Triggered execution %s (%s)\n", execution.ID, execution.Status)
	return nil
}

func runWorkflowsExecution(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	execution, err := a.workflows.OpenExecution(context.Background(), args[0])
	if err != nil {
		return err
	}
	printExecution(execution)
	return nil
}

func printExecution(e *models.Execution) {
	fmt.Printf("Execution %s\n", e.ID)
	fmt.Printf("  Workflow: %s\n", e.WorkflowID)
	fmt.Printf("  Status:   %s\n", e.Status)
	fmt.Printf("  Started:  %s\n", utils.FormatTime(e.StartedAt))
	fmt.Printf("  Duration: %s\n", utils.FormatDuration(e.Duration))
	if e.Error != "" {
		fmt.Printf("  Error:    %s\n", e.Error)
	}
	for _, step := range e.Steps {
		fmt.Printf("    - %s: %s\n", step.Name, step.Status)
	}
}

func runWorkflowsCancel(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	pending := a.workflows.RequestCancel(args[0])
	if !wfYes && !promptConfirm(fmt.Sprintf("Cancel execution %s", args[0])) {
		return pending.Dismiss()
	}
	if err := pending.Confirm(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Cancelled execution %s\n", args[0])
	return nil
}

func runWorkflowsStats(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	stats, err := a.workflows.Statistics(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Workflows:        %d\n", stats.Total)
	fmt.Printf("Active:           %d\n", stats.Active)
	fmt.Printf("Running now:      %d\n", stats.Running)
	fmt.Printf("Executions today: %d\n", stats.ExecutionsToday)
	return nil
}
