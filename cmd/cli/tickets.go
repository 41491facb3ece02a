package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"deskview/internal/console"
	"deskview/internal/models"
	"deskview/internal/query"
	"deskview/internal/services"
	"deskview/pkg/utils"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Browse and manage support tickets",
}

var (
	ticketSearch    string
	ticketStatus    string
	ticketPriority  string
	ticketSortBy    string
	ticketSortDesc  bool
	ticketPage      int
	ticketFrom      string
	ticketTo        string
	ticketRequester string
	ticketOpen      string

	ticketResolution string
	ticketYes        bool

	createType     string
	createBuilding string
	createRoom     string
	createReqID    string
	createPriority string
)

func init() {
	rootCmd.AddCommand(ticketsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets matching the given filters",
		RunE:  runTicketsList,
	}
	listCmd.Flags().StringVar(&ticketSearch, "search", "", "free-text search")
	listCmd.Flags().StringVar(&ticketStatus, "status", "", "filter by status (OPEN, IN_PROGRESS, RESOLVED, CLOSED)")
	listCmd.Flags().StringVar(&ticketPriority, "priority", "", "filter by priority (LOW, MEDIUM, HIGH, CRITICAL)")
	listCmd.Flags().StringVar(&ticketSortBy, "sort", "", "sort field (created_at, updated_at, status, priority)")
	listCmd.Flags().BoolVar(&ticketSortDesc, "desc", false, "sort descending")
	listCmd.Flags().IntVar(&ticketPage, "page", 1, "page to show")
	listCmd.Flags().StringVar(&ticketFrom, "from", "", "created-at lower bound (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&ticketTo, "to", "", "created-at upper bound (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&ticketRequester, "requester", "", "only tickets opened by this requester")
	listCmd.Flags().StringVar(&ticketOpen, "open", "", "open this ticket's detail after loading")
	ticketsCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE:  runTicketsShow,
	}
	ticketsCmd.AddCommand(showCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new ticket",
		RunE:  runTicketsCreate,
	}
	createCmd.Flags().StringVar(&createType, "type", "", "type of request")
	createCmd.Flags().StringVar(&createBuilding, "building", "", "building")
	createCmd.Flags().StringVar(&createRoom, "room", "", "room")
	createCmd.Flags().StringVar(&createReqID, "requester", "", "requester id")
	createCmd.Flags().StringVar(&createPriority, "priority", "MEDIUM", "priority")
	ticketsCmd.AddCommand(createCmd)

	statusCmd := &cobra.Command{
		Use:   "status <id> <new-status>",
		Short: "Move a ticket through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE:  runTicketsStatus,
	}
	statusCmd.Flags().StringVar(&ticketResolution, "resolution", "", "resolution summary (required to resolve or close)")
	ticketsCmd.AddCommand(statusCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ticket (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE:  runTicketsDelete,
	}
	deleteCmd.Flags().BoolVarP(&ticketYes, "yes", "y", false, "confirm without prompting")
	ticketsCmd.AddCommand(deleteCmd)
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := context.Background()

	view := a.tickets
	if ticketSearch != "" {
		view.SetSearch(ticketSearch)
	}
	if ticketStatus != "" {
		view.SetStatusFilter(strings.ToUpper(ticketStatus))
	}
	if ticketPriority != "" {
		view.SetPriorityFilter(strings.ToUpper(ticketPriority))
	}
	if from, to, err := parseDateRange(ticketFrom, ticketTo); err != nil {
		return err
	} else if !from.IsZero() || !to.IsZero() {
		view.SetDateRange(from, to)
	}
	if ticketSortBy != "" {
		order := query.SortAsc
		if ticketSortDesc {
			order = query.SortDesc
		}
		view.SetSort(ticketSortBy, order)
	}
	if ticketRequester != "" {
		view.SetRequesterScope(ticketRequester)
	}
	if ticketPage > 1 {
		view.SetPage(ticketPage)
	}
	if ticketOpen != "" {
		view.State().SetIntent(console.OpenIntent{EntityID: ticketOpen})
	}

	if err := view.Load(ctx); err != nil {
		if a.cfg.Fallback.Enabled {
			a.logger.Warnf("Remote service unavailable, showing demo data: %v", err)
			if err := view.LoadDemo(ctx); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	printTicketPage(view.Page(), view.Criteria().Page, view.DemoData())

	if selected := view.State().Selected(); selected != "" {
		ticket, err := view.Open(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Println()
		printTicket(ticket)
	}
	return nil
}

func printTicketPage(page *services.TicketPage, pageNum int, demoData bool) {
	if page == nil {
		fmt.Println("no data loaded")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREQUEST\tBUILDING\tROOM\tSTATUS\tPRIORITY\tCREATED")
	for _, t := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, utils.Truncate(t.TypeOfRequest, 32), t.Building, t.Room,
			t.Status, t.Priority, utils.FormatTime(t.CreatedAt))
	}
	w.Flush()
	win := page.Window
	fmt.Printf("\nShowing %d-%d of %d (page %d/%d)\n", win.From, win.To, win.Total, pageNum, win.TotalPages)
	if demoData {
		fmt.Println("[demo data - remote service not reachable]")
	}
}

func runTicketsShow(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	ticket, err := a.tickets.Open(context.Background(), args[0])
	if err != nil {
		return err
	}
	printTicket(ticket)
	return nil
}

func printTicket(t *models.Ticket) {
	fmt.Printf("Ticket %s\n", t.ID)
	fmt.Printf("  Request:    %s\n", t.TypeOfRequest)
	fmt.Printf("  Location:   %s / %s\n", t.Building, t.Room)
	fmt.Printf("  Requester:  %s\n", t.RequesterID)
	fmt.Printf("  Status:     %s\n", t.Status)
	fmt.Printf("  Priority:   %s\n", t.Priority)
	if t.ResolutionSummary != "" {
		fmt.Printf("  Resolution: %s\n", t.ResolutionSummary)
	}
	fmt.Printf("  Created:    %s\n", utils.FormatTime(t.CreatedAt))
	fmt.Printf("  Updated:    %s\n", utils.FormatTime(t.UpdatedAt))
}

func runTicketsCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	req := &models.TicketCreateRequest{
		TypeOfRequest: createType,
		Building:      createBuilding,
		Room:          createRoom,
		RequesterID:   createReqID,
		Priority:      models.TicketPriority(strings.ToUpper(createPriority)),
	}
	ticket, err := a.tickets.Create(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Printf("Created ticket %s\n", ticket.ID)
	return nil
}

func runTicketsStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	status := models.TicketStatus(strings.ToUpper(args[1]))
	ticket, err := a.tickets.UpdateStatus(context.Background(), args[0], status, ticketResolution)
	if err != nil {
		return err
	}
	fmt.Printf("Ticket %s is now %s\n", ticket.ID, ticket.Status)
	return nil
}

func runTicketsDelete(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()
	pending, err := a.tickets.RequestDelete(args[0])
	if err != nil {
		return err
	}
	if !ticketYes && !promptConfirm(fmt.Sprintf("Delete ticket %s? This cannot be undone", args[0])) {
		return pending.Dismiss()
	}
	if err := pending.Confirm(context.Background()); err != nil {
		return err
	}
	fmt.Printf("Deleted ticket %s\n", args[0])
	return nil
}

func promptConfirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var fromT, toT time.Time
	var err error
	if from != "" {
		fromT, err = time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
	}
	if to != "" {
		toT, err = time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		// inclusive day bound
		toT = toT.Add(24*time.Hour - time.Nanosecond)
	}
	return fromT, toT, nil
}
