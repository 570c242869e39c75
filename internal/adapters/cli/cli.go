// Package cli implements the operator command line for the back office.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/core"
	"backoffice/internal/logger"
	"backoffice/migrations"

	ucli "github.com/urfave/cli/v2"
)

// operator is the caller identity of CLI commands. Commands act with admin
// rights and none of them records the caller on a row.
var operator = core.Principal{Username: "cli", Role: core.RoleAdmin}

type runner struct {
	out io.Writer
	svc app.ApplicationService
	rt  *app.Runtime
}

// NewApp builds the CLI. When svc is nil, commands that need the database open
// one from the environment; tests inject a service instead.
func NewApp(out io.Writer, svc app.ApplicationService) *ucli.App {
	r := &runner{out: out, svc: svc}
	return &ucli.App{
		Name:      "app",
		Usage:     "Back-office operator commands",
		Writer:    out,
		ErrWriter: out,
		Commands: []*ucli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the embedded database schema",
				Before: r.open,
				After:  r.close,
				Action: r.migrate,
			},
			{
				Name:  "user",
				Usage: "Manage users",
				Subcommands: []*ucli.Command{
					{
						Name:  "create",
						Usage: "Create a user",
						Flags: []ucli.Flag{
							&ucli.StringFlag{Name: "username", Required: true},
							&ucli.StringFlag{Name: "password", Required: true, EnvVars: []string{"BACKOFFICE_USER_PASSWORD"}},
							&ucli.StringFlag{Name: "role", Required: true, Usage: "admin, manager, staff or supplier"},
							&ucli.StringFlag{Name: "email"},
						},
						Before: r.open,
						After:  r.close,
						Action: r.createUser,
					},
				},
			},
			{
				Name:   "stock",
				Usage:  "Print the inventory table with stock value",
				Before: r.open,
				After:  r.close,
				Action: r.stock,
			},
			{
				Name:  "po",
				Usage: "Purchase orders",
				Subcommands: []*ucli.Command{
					{
						Name:  "list",
						Usage: "List purchase orders",
						Flags: []ucli.Flag{
							&ucli.StringFlag{Name: "status", Usage: "draft, sent, confirmed, partially_received, received or cancelled"},
							&ucli.IntFlag{Name: "page", Value: 1},
						},
						Before: r.open,
						After:  r.close,
						Action: r.listPOs,
					},
				},
			},
			{
				Name:  "invoices",
				Usage: "Invoices",
				Subcommands: []*ucli.Command{
					{
						Name:   "mark-overdue",
						Usage:  "Flag unpaid invoices past their due date as overdue",
						Before: r.open,
						After:  r.close,
						Action: r.markOverdue,
					},
				},
			},
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of a request body",
				ArgsUsage: "<name>",
				Action:    r.schema,
			},
		},
	}
}

func (r *runner) open(c *ucli.Context) error {
	if r.svc != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	rt, err := app.Open(c.Context, cfg)
	if err != nil {
		return err
	}
	r.rt = rt
	r.svc = rt.Service
	return nil
}

func (r *runner) close(*ucli.Context) error {
	if r.rt != nil {
		r.rt.Close()
		r.rt = nil
	}
	return nil
}

func (r *runner) migrate(c *ucli.Context) error {
	if r.rt == nil {
		return errors.New("migrate needs a database connection")
	}
	applied, err := migrations.Apply(c.Context, r.rt.Pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(r.out, "Schema is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(r.out, "Applied %s\n", name)
	}
	return nil
}

func (r *runner) createUser(c *ucli.Context) error {
	user, err := r.svc.CreateUser(c.Context, operator, app.CreateUserRequest{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
		Role:     c.String("role"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Created user %s (id %d, role %s).\n", user.Username, user.ID, user.Role)
	return nil
}

func (r *runner) stock(c *ucli.Context) error {
	res, err := r.svc.GetStock(c.Context, operator)
	if err != nil {
		return err
	}
	printStock(r.out, res)
	return nil
}

func (r *runner) listPOs(c *ucli.Context) error {
	page, err := r.svc.ListPurchaseOrders(c.Context, operator, app.POListRequest{
		Status: c.String("status"),
		Page:   c.Int("page"),
	})
	if err != nil {
		return err
	}
	printPurchaseOrders(r.out, page)
	return nil
}

func (r *runner) markOverdue(c *ucli.Context) error {
	res, err := r.svc.MarkOverdueInvoices(c.Context, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Marked %d invoices and %d purchase invoices overdue.\n", res.Invoices, res.PurchaseInvoices)
	return nil
}

func (r *runner) schema(c *ucli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: app schema <name>\navailable: %s", strings.Join(app.SchemaNames(), ", "))
	}
	raw, err := app.RequestSchema(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, string(raw))
	return nil
}

const rule = 86

func printStock(w io.Writer, res *app.StockResult) {
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  %-12s %-26s %-8s %8s %12s %12s\n", "SKU", "PRODUCT", "UNIT", "QTY", "COST", "VALUE")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, row := range res.Rows {
		fmt.Fprintf(w, "  %-12s %-26s %-8s %8d %12s %12s\n",
			truncate(row.SKU, 12), truncate(row.ProductName, 26), row.Unit, row.Quantity,
			row.CostPrice.StringFixed(2), row.StockValue.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", rule))
	fmt.Fprintf(w, "  %-71s %12s\n", "TOTAL STOCK VALUE", res.TotalValue.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func printPurchaseOrders(w io.Writer, page *core.POPage) {
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  %-14s %-28s %-20s %12s\n", "NUMBER", "SUPPLIER", "STATUS", "TOTAL")
	fmt.Fprintln(w, strings.Repeat("-", rule))
	for _, po := range page.Orders {
		fmt.Fprintf(w, "  %-14s %-28s %-20s %12s\n",
			po.PONumber, truncate(po.SupplierName, 28), po.Status, po.TotalAmount.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "  page %d, %d of %d purchase orders\n", page.Page, len(page.Orders), page.Total)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
