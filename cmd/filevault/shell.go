package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filevault/internal/app"
	"filevault/internal/vfs"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse and edit the vault interactively",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.FileVaultApp, cmd *cobra.Command, args []string) error {
		return runShell(a, cmd.InOrStdin(), cmd.OutOrStdout())
	}),
}

const shellHelp = `commands:
  ls                    list the current folder
  cd ID | .. | /        enter a folder, go up, or go to the root
  crumb N               jump to breadcrumb N (0 is the root)
  pwd                   show the breadcrumb
  mkdir NAME            create a folder
  upload PATH           upload a host file or directory
  rename ID NAME        rename an entry
  mv ID PARENT_ID       move an entry
  rm ID                 delete an entry (folders recursively)
  cat ID                print a file
  preview ID            describe a file
  export ID DEST        copy an entry to a host directory
  sort name|date|size   sort by key; repeat to reverse
  filter [TEXT]         filter by name; no text clears it
  view grid|list        switch layout
  help, exit`

var errExit = errors.New("exit")

// runShell reads commands from in until EOF or exit. Command errors are
// printed and the loop continues.
func runShell(a *app.FileVaultApp, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", a.Service().CurrentFolder().Name)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := runShellCommand(a, line, out)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runShellCommand(a *app.FileVaultApp, line string, out io.Writer) error {
	svc := a.Service()
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	fields := strings.Fields(rest)

	need := func(n int) error {
		if len(fields) < n {
			return fmt.Errorf("%s: expected %d argument(s); try help", name, n)
		}
		return nil
	}

	switch name {
	case "exit", "quit":
		return errExit
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "ls":
		entries, err := svc.List()
		if err != nil {
			return err
		}
		printListing(out, svc, entries)
	case "pwd":
		fmt.Fprintln(out, breadcrumb(svc.Stack()))
	case "cd":
		return shellCd(svc, rest)
	case "crumb":
		if err := need(1); err != nil {
			return err
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("crumb: %w", err)
		}
		svc.NavigateToDepth(n)
	case "mkdir":
		n, err := validateName(rest)
		if err != nil {
			return err
		}
		e, err := svc.CreateFolder(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", e.ID)
	case "upload":
		if err := need(1); err != nil {
			return err
		}
		e, err := a.Import(rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s (%s)\n", e.Name, e.ID)
	case "rename":
		if err := need(2); err != nil {
			return err
		}
		id, newName, _ := strings.Cut(rest, " ")
		n, err := validateName(newName)
		if err != nil {
			return err
		}
		_, err = svc.Rename(id, n)
		return err
	case "mv":
		if err := need(2); err != nil {
			return err
		}
		if err := checkMoveTarget(svc, fields[0], fields[1]); err != nil {
			return err
		}
		_, err := svc.Move(fields[0], fields[1])
		return err
	case "rm":
		if err := need(1); err != nil {
			return err
		}
		err := svc.Delete(fields[0])
		if perr := pruneStack(svc); perr != nil && err == nil {
			err = perr
		}
		return err
	case "cat":
		if err := need(1); err != nil {
			return err
		}
		if err := a.ReadContent(fields[0], out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	case "preview":
		if err := need(1); err != nil {
			return err
		}
		p, err := svc.Preview(fields[0])
		if err != nil {
			return err
		}
		printPreview(out, p, 20)
	case "export":
		if err := need(2); err != nil {
			return err
		}
		written, err := a.Export(fields[0], fields[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %d file(s)\n", len(written))
	case "sort":
		if err := need(1); err != nil {
			return err
		}
		key, err := vfs.ParseSortKey(fields[0])
		if err != nil {
			return err
		}
		svc.SetSortBy(key)
		st := svc.SortState()
		dir := "ascending"
		if !st.Ascending {
			dir = "descending"
		}
		fmt.Fprintf(out, "sorted by %s, %s\n", st.By, dir)
	case "filter":
		svc.SetFilter(rest)
	case "view":
		if err := need(1); err != nil {
			return err
		}
		mode, err := vfs.ParseViewMode(fields[0])
		if err != nil {
			return err
		}
		svc.SetView(mode)
	default:
		return fmt.Errorf("unknown command %q; try help", name)
	}
	return nil
}

func shellCd(svc *vfs.Service, target string) error {
	switch target {
	case "", "/":
		svc.NavigateToDepth(0)
		return nil
	case "..":
		svc.NavigateToDepth(len(svc.Stack()) - 2)
		return nil
	}

	e, err := svc.Entry(target)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: %s", vfs.ErrNotFound, target)
	}
	if !e.IsFolder() {
		return fmt.Errorf("%s is not a folder", e.Name)
	}
	svc.NavigateInto(e.ID, e.Name)
	return nil
}

// pruneStack cuts the navigation stack at the first folder that no longer
// exists, so later writes never target a deleted parent.
func pruneStack(svc *vfs.Service) error {
	stack := svc.Stack()
	for i := 1; i < len(stack); i++ {
		e, err := svc.Entry(stack[i].ID)
		if err != nil {
			return err
		}
		if e == nil {
			svc.NavigateToDepth(i - 1)
			return nil
		}
	}
	return nil
}
