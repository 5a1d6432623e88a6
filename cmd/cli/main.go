package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aryan0dhankhar/clientdesk/internal/dashboard"
	"github.com/aryan0dhankhar/clientdesk/internal/domain"
	"github.com/aryan0dhankhar/clientdesk/internal/handler"
	"github.com/aryan0dhankhar/clientdesk/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "auth":
		err = handleAuth(args)
	case "clients":
		err = handleClients(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: clientdesk auth <register|login|logout|who>")
		return nil
	}

	api := newAPIClient()
	switch args[0] {
	case "register":
		return registerUser(api, args[1:])
	case "login":
		return loginUser(api, args[1:])
	case "logout":
		return logoutUser(api)
	case "who":
		return whoAmI(api)
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func handleClients(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: clientdesk clients <list|show|new|edit|delete>")
		return nil
	}

	api := newAPIClient()
	if api.token == "" {
		return fmt.Errorf("not logged in, run: clientdesk auth login")
	}

	switch args[0] {
	case "list":
		return listClients(api, os.Stdout, args[1:])
	case "show":
		return showClient(api, os.Stdout, args[1:])
	case "new":
		return newClient(api, args[1:])
	case "edit":
		return editClient(api, args[1:])
	case "delete":
		return deleteClient(api, os.Stdin, os.Stdout, args[1:])
	default:
		return fmt.Errorf("unknown clients command: %s", args[0])
	}
}

// Auth commands
func registerUser(api *apiClient, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email, username, and password are required")
	}

	var result service.TokenResult
	req := handler.RegisterRequest{Email: *email, Username: *username, Password: *password}
	if err := api.do(http.MethodPost, "/auth/register", req, &result); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := saveToken(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Printf("✓ User registered: %s\n", result.Email)
	return nil
}

func loginUser(api *apiClient, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	var result service.TokenResult
	if err := api.do(http.MethodPost, "/auth/login", handler.LoginRequest{Email: *email, Password: *password}, &result); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveToken(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Printf("✓ Logged in as: %s\n", result.Email)
	return nil
}

func logoutUser(api *apiClient) error {
	if api.token != "" {
		// the local token is dropped even if the server already forgot it
		if err := api.do(http.MethodPost, "/auth/logout", nil, nil); err != nil {
			fmt.Fprintf(os.Stderr, "server logout: %v\n", err)
		}
	}
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
	return nil
}

func whoAmI(api *apiClient) error {
	if api.token == "" {
		fmt.Println("Not logged in")
		return nil
	}
	var me handler.UserResponse
	if err := api.do(http.MethodGet, "/auth/me", nil, &me); err != nil {
		return err
	}
	fmt.Printf("✓ Logged in as %s (%s)\n", me.Email, me.Username)
	return nil
}

// Client commands
func listClients(api *apiClient, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	search := fs.String("search", "", "match name, email, document number or phone")
	status := fs.String("status", "all", "Active, Inactive, Suspended or all")
	svc := fs.String("service", "all", "service type or all")
	fs.Parse(args)

	var view handler.ViewResponse
	req := handler.FiltersRequest{Search: *search, Status: *status, Service: *svc}
	if err := api.do(http.MethodPut, "/dashboard/filters", req, &view); err != nil {
		return err
	}
	printClients(out, view)
	return nil
}

func printClients(out io.Writer, view handler.ViewResponse) {
	if view.LastError != "" {
		fmt.Fprintf(out, "! %s\n", view.LastError)
	}
	if len(view.Clients) == 0 {
		fmt.Fprintln(out, view.EmptyMessage)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOCUMENT\tPHONE\tSERVICE\tSTATUS")
	for _, c := range view.Clients {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			c.ID, c.FullName, c.DocumentType, c.DocumentNumber, c.Phone, c.ServiceType, c.Status.Label())
	}
	w.Flush()
	fmt.Fprintf(out, "%d of %d clients\n", len(view.Clients), view.Total)
}

func showClient(api *apiClient, out io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clientdesk clients show <client-id>")
	}

	var view handler.ViewResponse
	if err := api.do(http.MethodPut, "/dashboard/filters", handler.FiltersRequest{}, &view); err != nil {
		return err
	}
	for _, c := range view.Clients {
		if c.ID != args[0] {
			continue
		}
		f := domain.FormFromClient(c)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", c.ID)
		fmt.Fprintf(w, "Name\t%s\n", f.FullName)
		fmt.Fprintf(w, "Email\t%s\n", f.Email)
		fmt.Fprintf(w, "Phone\t%s\n", f.Phone)
		fmt.Fprintf(w, "Document\t%s %s\n", f.DocumentType, f.DocumentNumber)
		fmt.Fprintf(w, "Address\t%s\n", f.Address)
		fmt.Fprintf(w, "Service\t%s\n", f.ServiceType)
		fmt.Fprintf(w, "Plan\t%s\n", f.Plan)
		fmt.Fprintf(w, "Status\t%s\n", c.Status.Label())
		fmt.Fprintf(w, "Registered\t%s\n", c.RegistrationDate.Format("2006-01-02"))
		fmt.Fprintf(w, "Last contact\t%s\n", f.LastContact)
		fmt.Fprintf(w, "Notes\t%s\n", f.Notes)
		return w.Flush()
	}
	return fmt.Errorf("client %s not found", args[0])
}

func newClient(api *apiClient, args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	ff := registerFormFlags(fs)
	fs.Parse(args)

	var view handler.ViewResponse
	if err := api.do(http.MethodPost, "/dashboard/new", nil, &view); err != nil {
		return err
	}
	form := domain.NewClientForm()
	if view.Form != nil {
		form = *view.Form
	}
	ff.apply(fs, &form)
	return save(api, form)
}

func editClient(api *apiClient, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clientdesk clients edit <client-id> [flags]")
	}
	id := args[0]

	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	ff := registerFormFlags(fs)
	fs.Parse(args[1:])

	var view handler.ViewResponse
	if err := api.do(http.MethodPost, "/dashboard/clients/"+id+"/edit", nil, &view); err != nil {
		return err
	}
	if view.Form == nil {
		return fmt.Errorf("server did not open the edit form")
	}
	form := *view.Form
	ff.apply(fs, &form)
	return save(api, form)
}

// save submits the open form and closes it again if the save fails
func save(api *apiClient, form domain.ClientFormData) error {
	var view handler.ViewResponse
	if err := api.do(http.MethodPost, "/dashboard/save", form, &view); err != nil {
		api.do(http.MethodPost, "/dashboard/cancel", nil, nil)
		return fmt.Errorf("save failed: %w", err)
	}
	fmt.Printf("✓ Saved %s\n", form.FullName)
	return nil
}

func deleteClient(api *apiClient, in io.Reader, out io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: clientdesk clients delete <client-id> [-yes]")
	}
	id := args[0]

	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args[1:])

	if err := api.do(http.MethodPost, "/dashboard/clients/"+id+"/delete", nil, nil); err != nil {
		return err
	}

	var confirmer dashboard.Confirmer = promptConfirmer(in, out)
	if *yes {
		confirmer = dashboard.ConfirmFunc(func(context.Context, string) bool { return true })
	}
	confirmed := confirmer.Confirm(context.Background(), dashboard.DeletePrompt)

	var view handler.ViewResponse
	if err := api.do(http.MethodPost, "/dashboard/delete/confirm", handler.ConfirmRequest{Confirm: confirmed}, &view); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if confirmed {
		fmt.Fprintf(out, "✓ Deleted %s\n", id)
	} else {
		fmt.Fprintln(out, "Cancelled")
	}
	return nil
}

// promptConfirmer asks on out and reads y/N from in
func promptConfirmer(in io.Reader, out io.Writer) dashboard.ConfirmFunc {
	return func(_ context.Context, message string) bool {
		fmt.Fprintf(out, "%s [y/N] ", message)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// formFlags maps command line flags onto ClientFormData fields
type formFlags map[string]*string

func registerFormFlags(fs *flag.FlagSet) formFlags {
	return formFlags{
		"full-name":       fs.String("full-name", "", "full name"),
		"email":           fs.String("email", "", "email address"),
		"phone":           fs.String("phone", "", "phone number"),
		"document-type":   fs.String("document-type", "", "DNI, CE, Pasaporte or RUC"),
		"document-number": fs.String("document-number", "", "document number"),
		"address":         fs.String("address", "", "street address"),
		"service":         fs.String("service", "", "service type as stored, e.g. \"Internet Hogar\""),
		"plan":            fs.String("plan", "", "plan name"),
		"status":          fs.String("status", "", "Active, Inactive or Suspended"),
		"last-contact":    fs.String("last-contact", "", "last contact date, YYYY-MM-DD"),
		"notes":           fs.String("notes", "", "free-form notes"),
	}
}

// apply copies only the flags given on the command line, so edits keep
// the stored values of everything else.
func (ff formFlags) apply(fs *flag.FlagSet, form *domain.ClientFormData) {
	fs.Visit(func(f *flag.Flag) {
		v, ok := ff[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "full-name":
			form.FullName = *v
		case "email":
			form.Email = *v
		case "phone":
			form.Phone = *v
		case "document-type":
			form.DocumentType = *v
		case "document-number":
			form.DocumentNumber = *v
		case "address":
			form.Address = *v
		case "service":
			form.ServiceType = *v
		case "plan":
			form.Plan = *v
		case "status":
			form.Status = *v
		case "last-contact":
			form.LastContact = *v
		case "notes":
			form.Notes = *v
		}
	})
}

func printUsage() {
	fmt.Print(`clientdesk CLI

Usage:
  clientdesk <command> [options]

Commands:
  auth       User authentication (register, login, logout, who)
  clients    Client records (list, show, new, edit, delete)
  help       Show this help message

Environment Variables:
  CLIENTDESK_API    API endpoint (default: http://localhost:8080/api)

Examples:
  clientdesk auth register -email user@example.com -username user -password secret123
  clientdesk auth login -email user@example.com -password secret123
  clientdesk clients list -status Active -search ana
  clientdesk clients new -full-name "Ana Ruiz" -document-number 40123456 -phone 987654321 -service "Móvil"
  clientdesk clients edit <id> -status Suspended
  clientdesk clients delete <id>
`)
}
