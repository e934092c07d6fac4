package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"foodmarket/config"
	"foodmarket/storefront"
)

type settings struct {
	APIURL   string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080"`
	Session  string        `env:"STOREFRONT_SESSION"`
	Timeout  time.Duration `env:"STOREFRONT_TIMEOUT" envDefault:"30s"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"warn"`
}

const usage = `usage: storefront [flags] <command> [args]

commands:
  login <email> <password>
  logout
  prefs <term>...          add preference terms
  browse                   products matching your preferences
  chips [categoryId]       products of one category
  search <id>[,<id>...]    look up products by id
  mine                     your listings (sellers)
  order <productId> [qty]  order from the current view of browse
  markers                  map pins for browse results
  orders                   your past orders
  cancel <orderId>         cancel a placed order
  restock <productId> <n>  set the stock of one of your listings
`

func main() {
	config.LoadEnv()

	var s settings
	if err := config.Parse(&s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if s.Session == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		s.Session = filepath.Join(dir, "foodmarket", "session.json")
	}

	flag.StringVar(&s.APIURL, "api", s.APIURL, "marketplace API base URL")
	flag.StringVar(&s.Session, "session", s.Session, "session file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage); flag.PrintDefaults() }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(s.LogLevel))
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	session, err := storefront.LoadSession(s.Session)
	if err != nil {
		log.Error("load session", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	sf := storefront.New(s.APIURL, session, s.Session, log)
	if err := run(ctx, sf, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, storefront.MessageOf(err, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, sf *storefront.Storefront, cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("login needs <email> <password>")
		}
		u, err := sf.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s)\n", u.Name, u.Role)
		return nil

	case "logout":
		return sf.Logout(ctx)

	case "prefs":
		if len(args) == 0 {
			return fmt.Errorf("prefs needs at least one term")
		}
		if err := sf.AddPreferences(ctx, args); err != nil {
			return err
		}
		fmt.Println("preferences:", strings.Join(sf.Session.User.Preferences, ", "))
		return nil

	case "browse":
		if err := sf.Browse(ctx); err != nil {
			return err
		}
		printProducts(sf.Cart.Products())
		return nil

	case "chips":
		var id string
		if len(args) > 0 {
			id = args[0]
		}
		chip, err := sf.Catalog.SelectChip(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range sf.Catalog.Chips() {
			mark := " "
			if c.ID == chip.ID {
				mark = "*"
			}
			fmt.Printf("%s %s %s (%s)\n", mark, c.Emoji, c.Name, c.ID)
		}
		fmt.Println()
		printProducts(sf.Cart.Products())
		return nil

	case "search":
		if len(args) != 1 {
			return fmt.Errorf("search needs a comma separated id list")
		}
		var ids []string
		for _, id := range strings.Split(args[0], ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if err := sf.Catalog.LoadProducts(ctx, ids); err != nil {
			return err
		}
		printProducts(sf.Cart.Products())
		return nil

	case "mine":
		if err := sf.MyProducts(ctx); err != nil {
			return err
		}
		printProducts(sf.Cart.Products())
		return nil

	case "order":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("order needs <productId> [qty]")
		}
		qty := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			qty = n
		}
		if err := sf.Browse(ctx); err != nil {
			return err
		}
		for i := 1; i < qty; i++ {
			if !sf.Increment(args[0]) {
				return fmt.Errorf("only %d available", i)
			}
		}
		a, err := sf.Order(ctx, args[0])
		if err != nil {
			return err
		}
		if a.State == storefront.Failed {
			return fmt.Errorf("%s", a.Message)
		}
		fmt.Printf("%s: order %s, %d for %.2f\n", a.Message, a.OrderID, a.Quantity, a.Price)
		if a.Inconsistent() {
			fmt.Fprintln(os.Stderr, "warning: stock level was not updated")
		}
		return nil

	case "markers":
		if err := sf.Browse(ctx); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PIN\tPRODUCT\tLAT\tLNG\tOFF")
		for _, m := range sf.Markers() {
			fmt.Fprintf(w, "%s\t%s\t%.5f\t%.5f\t%.0f%%\n", m.Emoji, m.Name, m.Lat, m.Lng, m.DiscountPercentage)
		}
		return w.Flush()

	case "orders":
		orders, err := sf.Client.Orders(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER\tPRODUCT\tQTY\tPRICE\tSTATUS")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n", o.ID, o.ProductID, o.Quantity, o.Price, o.Status)
		}
		return w.Flush()

	case "cancel":
		if len(args) != 1 {
			return fmt.Errorf("cancel needs <orderId>")
		}
		o, err := sf.Client.CancelOrder(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("order %s %s\n", o.ID, o.Status)
		return nil

	case "restock":
		if len(args) != 2 {
			return fmt.Errorf("restock needs <productId> <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid stock level %q", args[1])
		}
		p, err := sf.Client.UpdateProduct(ctx, args[0], storefront.ProductChanges{AvailableQuantity: &n})
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d left\n", p.Name, p.AvailableQuantity)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printProducts(products []storefront.Product) {
	if len(products) == 0 {
		fmt.Println("no products")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tWAS\tOFF\tLEFT\tSELLER")
	for _, p := range products {
		seller := ""
		if p.Seller != nil {
			seller = p.Seller.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.0f%%\t%d\t%s\n",
			p.ID, p.Name, p.DiscountedPrice, p.OriginalPrice, p.DiscountPercentage, p.AvailableQuantity, seller)
	}
	_ = w.Flush()
}
