package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"filevault/internal/vfs"
)

// breadcrumb renders the navigation stack as "My Files / Docs / Work".
func breadcrumb(stack []vfs.Frame) string {
	names := make([]string, len(stack))
	for i, f := range stack {
		names[i] = f.Name
	}
	return strings.Join(names, " / ")
}

func displayName(e *vfs.Entry) string {
	if e.IsFolder() {
		return e.Name + "/"
	}
	return e.Name
}

// printListing writes a folder listing in the service's view mode.
func printListing(w io.Writer, svc *vfs.Service, entries []*vfs.Entry) {
	fmt.Fprintln(w, breadcrumb(svc.Stack()))
	if f := svc.Filter(); f != "" {
		fmt.Fprintf(w, "filter: %q\n", f)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "This folder is empty.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if svc.View() == vfs.ViewGrid {
		const perRow = 4
		for i, e := range entries {
			fmt.Fprintf(tw, "%s\t", displayName(e))
			if (i+1)%perRow == 0 || i == len(entries)-1 {
				fmt.Fprintln(tw)
			}
		}
		return
	}

	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, displayName(e), vfs.FormatSize(e.Size), vfs.FormatDate(e.ModifiedAt))
	}
}

// printPreview describes a file and, for text, shows up to maxLines lines.
func printPreview(w io.Writer, p *vfs.Preview, maxLines int) {
	fmt.Fprintf(w, "%s  %s  %s  %s\n", p.Entry.Name, p.Entry.ContentType, vfs.FormatSize(p.Entry.Size), vfs.FormatDate(p.Entry.ModifiedAt))

	switch p.Kind {
	case vfs.PreviewText:
		lines := strings.Split(p.Text, "\n")
		if maxLines > 0 && len(lines) > maxLines {
			lines = append(lines[:maxLines], fmt.Sprintf("... (%d more lines)", len(lines)-maxLines))
		}
		fmt.Fprintln(w, strings.Join(lines, "\n"))
	case vfs.PreviewNone:
		fmt.Fprintln(w, "Preview not available for this file type.")
	default:
		fmt.Fprintf(w, "%s file; use `filevault export` to open it.\n", p.Kind)
	}
}
