package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/lancealx/nanocli/internal/nano"
	"github.com/lancealx/nanocli/pkg/util"
)

// ContactService defines the subset of the Nano client used for referral
// contacts.
type ContactService interface {
	Contacts(ctx context.Context) (gjson.Result, error)
	CreateContact(ctx context.Context, in nano.Contact) (gjson.Result, error)
	UpdateContact(ctx context.Context, in nano.Contact) (gjson.Result, error)
	DeleteContact(ctx context.Context, id string) error
}

// ContactsCmd handles referral contact operations.
type ContactsCmd struct {
	svc ContactService
}

// List lists referral contacts.
func (c ContactsCmd) List(ctx context.Context) error {
	doc, err := c.svc.Contacts(ctx)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}

	rows := pterm.TableData{{"ID", "Name", "Company", "Email", "Phone"}}
	doc.Get("data").ForEach(func(_, ct gjson.Result) bool {
		rows = append(rows, []string{
			util.OrDash(ct.Get("id").String()),
			util.OrDash(ct.Get("name").String()),
			util.OrDash(ct.Get("company").String()),
			util.OrDash(ct.Get("email").String()),
			util.OrDash(ct.Get("phone").String()),
		})
		return true
	})

	if len(rows) == 1 {
		pterm.Info.Println("No contacts found")
		return nil
	}
	PrintTableNoPad(rows, true)
	return nil
}

// Create creates a referral contact.
func (c ContactsCmd) Create(ctx context.Context, in nano.Contact) error {
	doc, err := c.svc.CreateContact(ctx, in)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	pterm.Success.Println("Contact created")
	printContact(doc.Get("data"))
	return nil
}

// Update updates a referral contact.
func (c ContactsCmd) Update(ctx context.Context, in nano.Contact) error {
	doc, err := c.svc.UpdateContact(ctx, in)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}

	pterm.Success.Println("Contact updated")
	printContact(doc.Get("data"))
	return nil
}

// Delete removes a referral contact.
func (c ContactsCmd) Delete(ctx context.Context, id string) error {
	if err := c.svc.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	pterm.Success.Printf("Contact %s deleted\n", id)
	return nil
}

func printContact(ct gjson.Result) {
	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"ID", util.OrDash(ct.Get("id").String())})
	rows = append(rows, []string{"Name", util.OrDash(ct.Get("name").String())})
	if v := ct.Get("company").String(); v != "" {
		rows = append(rows, []string{"Company", v})
	}
	if v := ct.Get("email").String(); v != "" {
		rows = append(rows, []string{"Email", v})
	}
	if v := ct.Get("phone").String(); v != "" {
		rows = append(rows, []string{"Phone", v})
	}
	PrintTableNoPad(rows, true)
}

// --- Cobra wiring ---

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage referral contacts",
	Long:  "Commands for managing referral-source contacts in Nano",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	Args:  cobra.NoArgs,
	RunE:  runContactsList,
}

var contactsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contact",
	Args:  cobra.NoArgs,
	RunE:  runContactsCreate,
}

var contactsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsUpdate,
}

var contactsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsDelete,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.AddCommand(contactsListCmd)
	contactsCmd.AddCommand(contactsCreateCmd)
	contactsCmd.AddCommand(contactsUpdateCmd)
	contactsCmd.AddCommand(contactsDeleteCmd)

	// create flags
	contactsCreateCmd.Flags().String("name", "", "Contact name (required)")
	contactsCreateCmd.Flags().String("company", "", "Company name")
	contactsCreateCmd.Flags().String("email", "", "Email address")
	contactsCreateCmd.Flags().String("phone", "", "Phone number")
	_ = contactsCreateCmd.MarkFlagRequired("name")

	// update flags
	contactsUpdateCmd.Flags().String("name", "", "New contact name")
	contactsUpdateCmd.Flags().String("company", "", "New company name")
	contactsUpdateCmd.Flags().String("email", "", "New email address")
	contactsUpdateCmd.Flags().String("phone", "", "New phone number")
}

func contactFromFlags(cmd *cobra.Command, id string) nano.Contact {
	name, _ := cmd.Flags().GetString("name")
	company, _ := cmd.Flags().GetString("company")
	email, _ := cmd.Flags().GetString("email")
	phone, _ := cmd.Flags().GetString("phone")
	return nano.Contact{
		ID:      id,
		Name:    name,
		Company: company,
		Email:   email,
		Phone:   phone,
	}
}

func runContactsList(cmd *cobra.Command, args []string) error {
	c := ContactsCmd{svc: getNanoClient(cmd)}
	return c.List(cmd.Context())
}

func runContactsCreate(cmd *cobra.Command, args []string) error {
	c := ContactsCmd{svc: getNanoClient(cmd)}
	return c.Create(cmd.Context(), contactFromFlags(cmd, ""))
}

func runContactsUpdate(cmd *cobra.Command, args []string) error {
	c := ContactsCmd{svc: getNanoClient(cmd)}
	return c.Update(cmd.Context(), contactFromFlags(cmd, args[0]))
}

func runContactsDelete(cmd *cobra.Command, args []string) error {
	c := ContactsCmd{svc: getNanoClient(cmd)}
	return c.Delete(cmd.Context(), args[0])
}
