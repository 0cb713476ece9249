package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmcdole/kinotv/internal/collection"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/mmcdole/kinotv/internal/paging"
	"golang.org/x/term"
)

func (a *app) browse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	kind := fs.String("kind", "movies", "movies, shows or channels")
	genre := fs.String("genre", "", "genre name")
	cat := fs.String("catalog", "", "catalog name")
	provider := fs.String("provider", "", "streaming provider name")
	pages := fs.Int("pages", 1, "number of pages to load")
	match := fs.String("match", "", "fuzzy filter over the loaded titles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := a.resolveFilter(ctx, *genre, *cat, *provider)
	if err != nil {
		return err
	}

	switch *kind {
	case "movies":
		return show(ctx, a.out, a.catalog.Movies(filter), *pages, *match, func(m domain.Movie) []string {
			return []string{m.ID, m.Title, yearOf(m.Year), m.FormattedDuration()}
		})
	case "shows":
		return show(ctx, a.out, a.catalog.Shows(filter), *pages, *match, func(s domain.Show) []string {
			return []string{s.ID, s.Title, yearOf(s.Year), s.Description()}
		})
	case "channels":
		return show(ctx, a.out, a.catalog.Channels(filter), *pages, *match, func(c domain.Channel) []string {
			return []string{c.ID, fmt.Sprintf("%d", c.Number), c.Name, c.Category}
		})
	default:
		return fmt.Errorf("unknown kind %q", *kind)
	}
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	pages := fs.Int("pages", 1, "number of pages to load")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("search needs a query")
	}

	return show(ctx, a.out, a.catalog.Search(query), *pages, "", func(h domain.SearchHit) []string {
		return []string{h.GetID(), string(h.ContentType), h.GetTitle(), yearOf(h.GetYear())}
	})
}

// resolveFilter turns at most one of the name flags into a filter
func (a *app) resolveFilter(ctx context.Context, genre, cat, provider string) (domain.Filter, error) {
	var o outcome.Outcome[domain.Filter]
	switch {
	case genre != "":
		o = a.catalog.ResolveGenre(ctx, genre)
	case cat != "":
		o = a.catalog.ResolveCatalog(ctx, cat)
	case provider != "":
		o = a.catalog.ResolveProvider(ctx, provider)
	default:
		return domain.Filter{}, nil
	}
	f, err := o.Unpack()
	if err != nil {
		return domain.Filter{}, describe(err)
	}
	a.logger.Debug("resolved filter", "filter", f)
	return f, nil
}

// show loads up to pages pages into h, then prints the items
func show[T any](ctx context.Context, out *printer, h *collection.Handle[T], pages int, match string, cols func(T) []string) error {
	defer h.Close()

	snap, err := collect(ctx, h, pages)
	if err != nil {
		return err
	}

	items := collection.Filter(snap.Items, match, func(t T) string {
		c := cols(t)
		return strings.Join(c[1:], " ")
	})
	if len(items) == 0 {
		fmt.Fprintln(out.w, "No results")
		return nil
	}
	for _, item := range items {
		out.row(cols(item)...)
	}
	if !snap.States.Append.EndReached {
		fmt.Fprintf(out.w, "(%d items, more available)\n", len(snap.Items))
	}
	return nil
}

// collect waits for the initial page and appends until pages are loaded or
// the listing ends
func collect[T any](ctx context.Context, h *collection.Handle[T], pages int) (paging.Snapshot[T], error) {
	requested := 1
	for {
		select {
		case <-ctx.Done():
			return h.Snapshot(), ctx.Err()
		case snap, ok := <-h.Updates():
			if !ok {
				return snap, errors.New("listing closed")
			}
			for _, st := range []paging.LoadState{snap.States.Refresh, snap.States.Append} {
				if f, failed := st.Failure.Get(); failed {
					return snap, describe(f)
				}
			}
			if snap.States.Refresh.Status == paging.Loading || snap.States.Append.Status == paging.Loading {
				continue
			}
			if len(snap.Pages) < requested {
				continue
			}
			if len(snap.Pages) >= pages || snap.States.Append.EndReached {
				return snap, nil
			}
			h.Append()
			requested++
		}
	}
}

// describe maps a classified failure to a message for the terminal
func describe(err error) error {
	switch outcome.Classify(err) {
	case outcome.Unauthorized:
		return fmt.Errorf("not signed in or token rejected, run `kinotv login`: %w", err)
	case outcome.NoConnectivity, outcome.Timeout:
		return fmt.Errorf("cannot reach the catalog server: %w", err)
	default:
		return err
	}
}

func yearOf(y int) string {
	if y == 0 {
		return ""
	}
	return fmt.Sprintf("%d", y)
}

// printer writes rows as aligned columns on a terminal and as tab-separated
// values otherwise
type printer struct {
	w     io.Writer
	tty   bool
	width int
}

func newPrinter(f *os.File) *printer {
	p := &printer{w: f}
	if term.IsTerminal(int(f.Fd())) {
		p.tty = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = w
		}
	}
	return p
}

func (p *printer) row(cols ...string) {
	if !p.tty {
		fmt.Fprintln(p.w, strings.Join(cols, "\t"))
		return
	}
	line := fmt.Sprintf("%-12s %s", cols[0], strings.Join(cols[1:], "  "))
	if p.width > 0 && len(line) > p.width {
		line = line[:p.width-1] + "…"
	}
	fmt.Fprintln(p.w, line)
}
