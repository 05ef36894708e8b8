package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filevault/internal/app"
	"filevault/internal/vfs"
)

// openParent moves the service into the folder named by --parent.
func openParent(a *app.FileVaultApp, cmd *cobra.Command) error {
	parent, _ := cmd.Flags().GetString("parent")
	return a.OpenFolder(parent)
}

// applyListFlags copies the ls flags into the service's view state.
func applyListFlags(svc *vfs.Service, cmd *cobra.Command) error {
	sortBy, _ := cmd.Flags().GetString("sort")
	key, err := vfs.ParseSortKey(sortBy)
	if err != nil {
		return err
	}
	desc, _ := cmd.Flags().GetBool("desc")
	svc.SetSort(key, !desc)

	view, _ := cmd.Flags().GetString("view")
	mode, err := vfs.ParseViewMode(view)
	if err != nil {
		return err
	}
	svc.SetView(mode)

	filter, _ := cmd.Flags().GetString("filter")
	svc.SetFilter(filter)
	return nil
}

var lsCmd = &cobra.Command{
	Use:   "ls [FOLDER_ID]",
	Short: "List a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		folder := vfs.RootID
		if len(args) == 1 {
			folder = args[0]
		}
		if err := a.OpenFolder(folder); err != nil {
			return err
		}

		svc := a.Service()
		if err := applyListFlags(svc, cmd); err != nil {
			return err
		}

		entries, err := svc.List()
		if err != nil {
			return err
		}
		printListing(os.Stdout, svc, entries)
		return nil
	}),
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir NAME",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		name, err := validateName(args[0])
		if err != nil {
			return err
		}
		if err := openParent(a, cmd); err != nil {
			return err
		}

		entry, err := a.Service().CreateFolder(name)
		if err != nil {
			return fmt.Errorf("creating folder: %w", err)
		}
		fmt.Printf("Created folder %s (%s)\n", entry.Name, entry.ID)
		return nil
	}),
}

var uploadCmd = &cobra.Command{
	Use:   "upload PATH...",
	Short: "Upload host files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		if err := openParent(a, cmd); err != nil {
			return err
		}

		for _, path := range args {
			entry, err := a.Import(path)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}
			fmt.Printf("Uploaded %s (%s)\n", entry.Name, entry.ID)
		}
		return nil
	}),
}

var renameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a file or folder",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		name, err := validateName(args[1])
		if err != nil {
			return err
		}
		entry, err := a.Service().Rename(args[0], name)
		if err != nil {
			return fmt.Errorf("renaming: %w", err)
		}
		fmt.Printf("Renamed %s to %s\n", entry.ID, entry.Name)
		return nil
	}),
}

var mvCmd = &cobra.Command{
	Use:   "mv ID PARENT_ID",
	Short: "Move a file or folder into another folder",
	Long:  "Move a file or folder into another folder. Use \"root\" as PARENT_ID for the top level.",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		id, parentID := args[0], args[1]
		if err := checkMoveTarget(a.Service(), id, parentID); err != nil {
			return err
		}

		entry, err := a.Service().Move(id, parentID)
		if err != nil {
			return fmt.Errorf("moving: %w", err)
		}
		fmt.Printf("Moved %s into %s\n", entry.Name, parentID)
		return nil
	}),
}

// checkMoveTarget rejects moves the service accepts but that would detach a
// subtree: a missing or non-folder target, or a target inside the moved entry.
func checkMoveTarget(svc *vfs.Service, id, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != vfs.RootID; {
		if cur == id {
			return fmt.Errorf("cannot move %s into itself or one of its folders", id)
		}
		if seen[cur] {
			return fmt.Errorf("checking target: %w", vfs.ErrCycle)
		}
		seen[cur] = true

		entry, err := svc.Entry(cur)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("target folder: %w: %s", vfs.ErrNotFound, cur)
		}
		if !entry.IsFolder() {
			return fmt.Errorf("target %s is not a folder", entry.Name)
		}
		cur = entry.ParentID
	}
	return nil
}

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a file, or a folder and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		if err := a.Service().Delete(args[0]); err != nil {
			return fmt.Errorf("deleting: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	}),
}

var catCmd = &cobra.Command{
	Use:   "cat ID",
	Short: "Write a file's content to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		return a.ReadContent(args[0], os.Stdout)
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export ID DEST",
	Short: "Copy a file or folder tree to a host directory",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		written, err := a.Export(args[0], args[1])
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		for _, p := range written {
			fmt.Println(p)
		}
		fmt.Printf("Exported %d file(s)\n", len(written))
		return nil
	}),
}

var previewCmd = &cobra.Command{
	Use:   "preview ID",
	Short: "Show a file's preview",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		p, err := a.Service().Preview(args[0])
		if err != nil {
			return err
		}
		lines, _ := cmd.Flags().GetInt("lines")
		printPreview(os.Stdout, p, lines)
		return nil
	}),
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot DEST",
	Short: "Write a consistent copy of the store",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		if err := a.Snapshot(args[0]); err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		fmt.Printf("Snapshot written to %s\n", args[0])
		return nil
	}),
}

func init() {
	lsCmd.Flags().String("sort", string(vfs.SortByName), "Sort by name, date or size")
	lsCmd.Flags().Bool("desc", false, "Sort descending")
	lsCmd.Flags().String("filter", "", "Only show names containing this text")
	lsCmd.Flags().String("view", string(vfs.ViewList), "Layout: list or grid")

	for _, c := range []*cobra.Command{mkdirCmd, uploadCmd} {
		c.Flags().String("parent", vfs.RootID, "Folder ID to act in")
	}
	previewCmd.Flags().IntP("lines", "n", 40, "Maximum text lines to show")

	rootCmd.AddCommand(lsCmd, mkdirCmd, uploadCmd, renameCmd, mvCmd, rmCmd,
		catCmd, exportCmd, previewCmd, snapshotCmd, shellCmd)
}
