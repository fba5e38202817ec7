// storectl is a terminal storefront client. It drives the state engine
// directly over a file-backed state directory, so it sees (and is seen
// by) anything else using the same directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Shopfront/internal/cart"
	"Shopfront/internal/catalog"
	"Shopfront/internal/compare"
	"Shopfront/internal/recent"
	"Shopfront/internal/storage"
)

var (
	stateDir   string
	catalogURL string
)

func main() {
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Terminal client for the shopfront state engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&stateDir, "state-dir", "./state", "state directory shared with the storefront service")
	root.PersistentFlags().StringVar(&catalogURL, "catalog-url", "https://dummyjson.com", "catalog base URL")

	root.AddCommand(cartCmd(), compareCmd(), recentCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type engine struct {
	kv      *storage.File
	cart    *cart.Store
	compare *compare.Store
	recent  *recent.Store
	catalog *catalog.Client
}

func openEngine() (*engine, error) {
	kv, err := storage.NewFile(stateDir)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	return &engine{
		kv:      kv,
		cart:    cart.NewStore(kv, log),
		compare: compare.NewStore(kv, log),
		recent:  recent.NewStore(kv, log),
		catalog: catalog.NewClient(catalogURL),
	}, nil
}

func (e *engine) fetch(id int) (catalog.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.catalog.GetProduct(ctx, id)
}

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Inspect and mutate the cart"}

	var (
		size         string
		qty          int
		replace      bool
		enforceStock bool
	)

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart with its totals",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			printCart(e.cart.Snapshot())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product variant, merging with an existing line",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad product id %q", args[0])
			}
			sz, ok := cart.ParseSize(size)
			if !ok {
				return fmt.Errorf("bad size %q (want S, M, L or XL)", size)
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			p, err := e.fetch(id)
			if err != nil {
				return err
			}

			mode := cart.Merge
			if replace {
				mode = cart.Replace
			}
			ceiling := 0
			if enforceStock {
				ceiling = p.Stock
			}

			st, perr := e.cart.AddOrUpdate(cart.Line{
				ProductID: p.ID,
				Title:     p.Title,
				UnitPrice: p.Price,
				Size:      sz,
				Quantity:  qty,
				Image:     p.Thumbnail,
			}, mode, ceiling)
			warn(perr)
			printCart(st)
			return nil
		},
	}
	add.Flags().StringVar(&size, "size", "M", "variant size")
	add.Flags().IntVar(&qty, "qty", 1, "quantity")
	add.Flags().BoolVar(&replace, "replace", false, "overwrite the existing quantity instead of merging")
	add.Flags().BoolVar(&enforceStock, "enforce-stock", false, "cap the quantity at the catalog stock count")

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Pin a line's quantity; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad product id %q", args[0])
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad quantity %q", args[1])
			}
			sz, ok := cart.ParseSize(size)
			if !ok {
				return fmt.Errorf("bad size %q", size)
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			st, perr := e.cart.SetQuantity(id, sz, n, 0)
			warn(perr)
			printCart(st)
			return nil
		},
	}
	set.Flags().StringVar(&size, "size", "M", "variant size")

	rm := &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad product id %q", args[0])
			}
			sz, ok := cart.ParseSize(size)
			if !ok {
				return fmt.Errorf("bad size %q", size)
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			st, perr := e.cart.Remove(id, sz)
			warn(perr)
			printCart(st)
			return nil
		},
	}
	rm.Flags().StringVar(&size, "size", "M", "variant size")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart and erase its record",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			_, perr := e.cart.Clear()
			warn(perr)
			fmt.Println("cart cleared")
			return nil
		},
	}

	cmd.AddCommand(show, add, set, rm, clear)
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "compare", Short: "Inspect and mutate the comparison set"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the comparison set",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			printCompare(e.compare.Snapshot())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product snapshot to the set",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad product id %q", args[0])
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			p, err := e.fetch(id)
			if err != nil {
				return err
			}

			outcome, st, perr := e.compare.Add(compare.Entry{
				ProductID:   p.ID,
				Title:       p.Title,
				Brand:       p.Brand,
				Price:       p.Price,
				Discount:    p.Discount,
				Rating:      p.Rating,
				Stock:       p.Stock,
				Category:    p.Category,
				Description: p.Description,
				Thumbnail:   p.Thumbnail,
			})
			warn(perr)

			switch outcome {
			case compare.Duplicate:
				fmt.Printf("%s is already in the comparison\n", p.Title)
			case compare.Full:
				fmt.Printf("comparison is full (%d products); remove one first\n", compare.MaxEntries)
			}
			printCompare(st)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a product from the set",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad product id %q", args[0])
			}

			e, err := openEngine()
			if err != nil {
				return err
			}
			st, perr := e.compare.Remove(id)
			warn(perr)
			printCompare(st)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the set and erase its record",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			_, perr := e.compare.Clear()
			warn(perr)
			fmt.Println("comparison cleared")
			return nil
		},
	}

	cmd.AddCommand(show, add, rm, clear)
	return cmd
}

func recentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Print recently viewed product ids, newest first",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			for _, id := range e.recent.List() {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-render the cart and comparison whenever the state directory changes",
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := openEngine(); err != nil {
				return err
			}

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Add(stateDir); err != nil {
				return err
			}

			render := func() {
				e, err := openEngine()
				if err != nil {
					fmt.Fprintln(os.Stderr, "reload failed:", err)
					return
				}
				fmt.Print("\n=== ", time.Now().Format(time.TimeOnly), " ===\n")
				printCart(e.cart.Snapshot())
				printCompare(e.compare.Snapshot())
			}
			render()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
						render()
					}
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintln(os.Stderr, "watch error:", err)
				case <-sig:
					return nil
				}
			}
		},
	}
}

func warn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

func printCart(st cart.State) {
	if len(st.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tQTY\tPRICE\tTITLE")
	for _, l := range st.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\n", l.ProductID, l.Size, l.Quantity, l.UnitPrice, l.Title)
	}
	_ = tw.Flush()
	fmt.Printf("total: %d items, %.2f\n", st.TotalQuantity, st.TotalAmount)
}

func printCompare(entries []compare.Entry) {
	if len(entries) == 0 {
		fmt.Println("comparison is empty")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRICE\tRATING\tSTOCK\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%.2f\t%.1f\t%d\t%s\n", e.ProductID, e.Price, e.Rating, e.Stock, e.Title)
	}
	_ = tw.Flush()
	fmt.Printf("%d of %d comparison slots used\n", len(entries), compare.MaxEntries)
}
