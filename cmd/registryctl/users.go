package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/vitalmed/staff-registry/pkg/registry"
)

func runUsers(cc *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: registryctl users <list|activate|deactivate> [flags]")
	}

	// Account administration is admin-only surface. The server enforces
	// this too, the local check just fails faster with a clearer message.
	s := cc.manager.Current()
	if !s.Authenticated() {
		return errors.New("not signed in")
	}
	if !registry.CanManageUsers(s.User.Role) {
		return fmt.Errorf("the %s role cannot administer accounts", s.User.Role)
	}

	switch args[0] {
	case "list":
		return runUsersList(cc, args[1:])
	case "activate":
		return runUsersSetActive(cc, args[1:], true)
	case "deactivate":
		return runUsersSetActive(cc, args[1:], false)
	default:
		return fmt.Errorf("unknown users subcommand %q", args[0])
	}
}

func runUsersList(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("users list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	role := fs.String("role", "", "only accounts with this role")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := cc.client.ListUsers(cc.ctx, registry.ListUsersOptions{
		Role:  *role,
		Page:  *page,
		Limit: *limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.Active)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cc.out, "\npage %d of %d (%d accounts)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func runUsersSetActive(cc *commandContext, args []string, active bool) error {
	if len(args) != 1 {
		return errors.New("usage: registryctl users activate|deactivate <user-id>")
	}
	id := args[0]

	if err := cc.client.SetUserActive(cc.ctx, id, active); err != nil {
		return err
	}
	verb := "activated"
	if !active {
		verb = "deactivated"
	}
	fmt.Fprintf(cc.out, "account %s %s\n", id, verb)
	return nil
}
