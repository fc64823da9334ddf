// Package cmd wires the package manager backends into the omnipm command
// line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/pkgmgr"
	"github.com/omnipm/omnipm/pkg/types"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// managerFlag scopes a command to one backend; empty means all configured.
type managerFlag struct {
	manager string
}

func (f *managerFlag) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.manager, "manager", "m", "", "Restrict to one package manager (dnf, flatpak, homebrew, cargo, go)")
}

// resolve returns the backends the command should operate on.
func (f *managerFlag) resolve(cfg *config.Config) (map[types.ManagerKind]pkgmgr.PackageManager, error) {
	kinds := cfg.Managers()
	if f.manager != "" {
		kinds = []types.ManagerKind{types.ManagerKind(f.manager)}
	}
	if len(kinds) == 0 {
		return nil, errors.New("no package managers configured; run 'omnipm detect'")
	}

	managers := map[types.ManagerKind]pkgmgr.PackageManager{}
	for _, kind := range kinds {
		m, err := pkgmgr.GetPackageManager(kind)
		if err != nil {
			return nil, err
		}
		managers[kind] = m
	}
	return managers, nil
}

// single returns exactly one backend, requiring --manager when several are
// configured.
func (f *managerFlag) single(cfg *config.Config) (pkgmgr.PackageManager, error) {
	managers, err := f.resolve(cfg)
	if err != nil {
		return nil, err
	}
	if len(managers) > 1 {
		return nil, errors.New("multiple package managers configured, pick one with --manager")
	}
	for _, m := range managers {
		return m, nil
	}
	return nil, errors.New("no package manager available")
}

func sortedKinds[V any](m map[types.ManagerKind]V) []types.ManagerKind {
	kinds := make([]types.ManagerKind, 0, len(m))
	for kind := range m {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func NewListCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages across configured package managers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			managers, err := mf.resolve(cfg)
			if err != nil {
				return err
			}

			results, err := pkgmgr.ListInstalledWith(cmd.Context(), cfg, managers)
			if err != nil {
				log.Warnf("some package managers failed: %v", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MANAGER\tNAME\tVERSION\tDESCRIPTION")
			for _, kind := range sortedKinds(results) {
				for _, pkg := range results[kind] {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, pkg.Name, pkg.Version, pkg.Description)
				}
			}
			return w.Flush()
		},
	}
	mf.register(cmd)
	return cmd
}

func NewUpdatesCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Show pending package updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			managers, err := mf.resolve(cfg)
			if err != nil {
				return err
			}

			results, err := pkgmgr.ListUpdatesWith(cmd.Context(), cfg, managers)
			if err != nil {
				log.Warnf("some package managers failed: %v", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MANAGER\tNAME\tCURRENT\tAVAILABLE")
			total := 0
			for _, kind := range sortedKinds(results) {
				for _, u := range results[kind] {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, u.Name, u.CurrentVersion, u.NewVersion)
					total++
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d update(s) pending\n", total)
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func NewCountCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count installed packages per package manager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			managers, err := mf.resolve(cfg)
			if err != nil {
				return err
			}

			counts, err := pkgmgr.CountWith(cmd.Context(), cfg, managers)
			if err != nil {
				log.Warnf("some package managers failed: %v", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MANAGER\tPACKAGES")
			for _, kind := range sortedKinds(counts) {
				fmt.Fprintf(w, "%s\t%d\n", kind, counts[kind])
			}
			return w.Flush()
		},
	}
	mf.register(cmd)
	return cmd
}

func NewSearchCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for packages across configured package managers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			managers, err := mf.resolve(cfg)
			if err != nil {
				return err
			}

			results, err := pkgmgr.SearchWith(cmd.Context(), cfg, args[0], managers)
			if err != nil {
				log.Warnf("some package managers failed: %v", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MANAGER\tNAME\tVERSION\tDESCRIPTION")
			for _, kind := range sortedKinds(results) {
				for _, pkg := range results[kind] {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, pkg.Name, pkg.Version, pkg.Description)
				}
			}
			return w.Flush()
		},
	}
	mf.register(cmd)
	return cmd
}

func NewInstallCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages with one package manager",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, &mf, args, "Installed",
				func(m pkgmgr.PackageManager) mutationFunc { return m.InstallPackages })
		},
	}
	mf.register(cmd)
	return cmd
}

func NewUpgradeCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "upgrade <package>...",
		Short: "Upgrade packages with one package manager",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, &mf, args, "Upgraded",
				func(m pkgmgr.PackageManager) mutationFunc { return m.UpdatePackages })
		},
	}
	mf.register(cmd)
	return cmd
}

func NewRemoveCmd() *cobra.Command {
	mf := managerFlag{}
	cmd := &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove a package with one package manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			m, err := mf.single(cfg)
			if err != nil {
				return err
			}
			if err := pkgmgr.UninstallPackage(cmd.Context(), m, cfg, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s via %s\n", args[0], m.Kind())
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func NewDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Detect available package managers and write the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Detect()
			if err := cfg.Save(); err != nil {
				return err
			}
			return printDetected(cmd.OutOrStdout(), cfg)
		},
	}
}

func printDetected(out io.Writer, cfg *config.Config) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MANAGER\tROLE\tCOMMAND")
	for _, kind := range cfg.Managers() {
		role := "application"
		if kind.IsSystemManager() {
			role = "system"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", kind, role, cfg.ExecutablePath(kind))
	}
	return w.Flush()
}

type mutationFunc = func(ctx context.Context, cfg *config.Config, names []string) error

func runMutation(cmd *cobra.Command, mf *managerFlag, names []string, verb string,
	pick func(pkgmgr.PackageManager) mutationFunc,
) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	m, err := mf.single(cfg)
	if err != nil {
		return err
	}
	if err := pick(m)(cmd.Context(), cfg, names); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d package(s) via %s\n", verb, len(names), m.Kind())
	return nil
}
