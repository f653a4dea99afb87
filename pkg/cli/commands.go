package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/platinummonkey/menuguard/pkg/rbac"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending schema migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}
	db := addDBFlags(cmd.Flags)

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		ctx := context.Background()
		conn, dialect, err := db.open(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		applied, err := rbac.Migrate(ctx, conn, dialect)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(stdout, "Schema is up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintf(stdout, "Applied migration %d\n", v)
		}
		return nil
	}
	return cmd
}

func newSeedCommand() *Command {
	cmd := &Command{
		Name:        "seed",
		Description: "Create the menu catalog and default roles",
		Flags:       flag.NewFlagSet("seed", flag.ContinueOnError),
	}
	db := addDBFlags(cmd.Flags)
	admin := cmd.Flags.String("admin", "", "Username to create and grant the ADMIN role")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		ctx := context.Background()
		store, closer, err := db.openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		result, err := rbac.Seed(ctx, store, rbac.SeedOptions{AdminUsername: *admin})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Seeded %d menus, %d roles, %d grants, %d users\n",
			result.Menus, result.Roles, result.Grants, result.Users)
		return nil
	}
	return cmd
}

func newCheckCommand() *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Resolve a permission decision for a user",
		Flags:       flag.NewFlagSet("check", flag.ContinueOnError),
	}
	db := addDBFlags(cmd.Flags)
	user := cmd.Flags.String("user", "", "Username (required)")
	menu := cmd.Flags.String("menu", "", "Menu code (required)")
	action := cmd.Flags.String("action", "read", "read, write, delete, manage, full or access")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *user == "" || *menu == "" {
			return fmt.Errorf("--user and --menu are required")
		}
		ctx := context.Background()
		store, closer, err := db.openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		engine := rbac.NewEngine(store, cliLogger(), nil)
		code := rbac.MenuCode(strings.ToUpper(*menu))

		var allowed bool
		if a, ok := rbac.ParseAction(*action); ok {
			allowed, err = engine.Resolve(ctx, *user, code, a)
		} else if kind, ok := rbac.ParseComposite(*action); ok {
			allowed, err = engine.Composite(ctx, *user, code, kind)
		} else {
			return fmt.Errorf("unknown action: %s", *action)
		}
		if err != nil {
			return err
		}

		verdict := "DENY"
		if allowed {
			verdict = "ALLOW"
		}
		fmt.Fprintf(stdout, "%s %s %s: %s\n", *user, *action, code, verdict)
		return nil
	}
	return cmd
}

func newMenusCommand() *Command {
	cmd := &Command{
		Name:        "menus",
		Description: "List a user's effective menu permissions",
		Flags:       flag.NewFlagSet("menus", flag.ContinueOnError),
	}
	db := addDBFlags(cmd.Flags)
	user := cmd.Flags.String("user", "", "Username (required)")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *user == "" {
			return fmt.Errorf("--user is required")
		}
		ctx := context.Background()
		store, closer, err := db.openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		u, err := store.GetUserByUsername(ctx, *user)
		if err != nil {
			return err
		}
		grants, err := store.GrantsByUser(ctx, u.ID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MENU\tNAME\tREAD\tWRITE\tDELETE")
		for _, row := range mergeGrants(grants) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.ident, row.name, mark(row.read), mark(row.write), mark(row.del))
		}
		return w.Flush()
	}
	return cmd
}

type menuBits struct {
	ident, name      string
	read, write, del bool
}

// mergeGrants ORs the bits of every role's grant per menu, keeping first-seen order
func mergeGrants(grants []*rbac.GrantDetail) []*menuBits {
	byMenu := make(map[int64]*menuBits)
	var out []*menuBits
	for _, g := range grants {
		row, ok := byMenu[g.MenuID]
		if !ok {
			ident := string(g.MenuCode)
			if ident == "" {
				ident = "-"
			}
			row = &menuBits{ident: ident, name: g.MenuName}
			byMenu[g.MenuID] = row
			out = append(out, row)
		}
		row.read = row.read || g.CanRead
		row.write = row.write || g.CanWrite
		row.del = row.del || g.CanDelete
	}
	return out
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
