package pkgmgr

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/omnipm/omnipm/pkg/config"
	"github.com/omnipm/omnipm/pkg/types"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Aggregation fans one query out across every configured backend and merges
// the per-backend results. A failing backend contributes nothing to the merged
// result and its error to the aggregate error; it never blocks or poisons the
// other backends.

func configuredManagers(cfg *config.Config) map[types.ManagerKind]PackageManager {
	managers := map[types.ManagerKind]PackageManager{}
	for _, kind := range cfg.Managers() {
		m, err := GetPackageManager(kind)
		if err != nil {
			log.Debugf("skipping configured manager %s: %v", kind, err)
			continue
		}
		managers[kind] = m
	}
	return managers
}

// ListUpdatesAll collects pending updates from every configured backend.
func ListUpdatesAll(ctx context.Context, cfg *config.Config) (map[types.ManagerKind][]types.PackageUpdate, error) {
	return ListUpdatesWith(ctx, cfg, configuredManagers(cfg))
}

func ListUpdatesWith(ctx context.Context, cfg *config.Config, managers map[types.ManagerKind]PackageManager) (map[types.ManagerKind][]types.PackageUpdate, error) {
	var (
		mu      sync.Mutex
		results = map[types.ManagerKind][]types.PackageUpdate{}
		errs    *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	for kind, m := range managers {
		kind, m := kind, m
		g.Go(func() error {
			updates, err := m.ListUpdates(ctx, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debugf("%s: listing updates failed: %v", kind, err)
				errs = multierror.Append(errs, err)
				return nil
			}
			results[kind] = updates
			return nil
		})
	}
	g.Wait()
	return results, errs.ErrorOrNil()
}

// ListInstalledAll collects installed packages from every configured backend.
func ListInstalledAll(ctx context.Context, cfg *config.Config) (map[types.ManagerKind][]types.PackageInfo, error) {
	return ListInstalledWith(ctx, cfg, configuredManagers(cfg))
}

func ListInstalledWith(ctx context.Context, cfg *config.Config, managers map[types.ManagerKind]PackageManager) (map[types.ManagerKind][]types.PackageInfo, error) {
	var (
		mu      sync.Mutex
		results = map[types.ManagerKind][]types.PackageInfo{}
		errs    *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	for kind, m := range managers {
		kind, m := kind, m
		g.Go(func() error {
			packages, err := m.ListInstalled(ctx, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debugf("%s: listing installed failed: %v", kind, err)
				errs = multierror.Append(errs, err)
				return nil
			}
			results[kind] = packages
			return nil
		})
	}
	g.Wait()
	return results, errs.ErrorOrNil()
}

// CountAll collects installed-package counts from every configured backend.
func CountAll(ctx context.Context, cfg *config.Config) (map[types.ManagerKind]int, error) {
	return CountWith(ctx, cfg, configuredManagers(cfg))
}

func CountWith(ctx context.Context, cfg *config.Config, managers map[types.ManagerKind]PackageManager) (map[types.ManagerKind]int, error) {
	var (
		mu      sync.Mutex
		results = map[types.ManagerKind]int{}
		errs    *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	for kind, m := range managers {
		kind, m := kind, m
		g.Go(func() error {
			count, err := m.CountInstalled(ctx, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debugf("%s: counting installed failed: %v", kind, err)
				errs = multierror.Append(errs, err)
				return nil
			}
			results[kind] = count
			return nil
		})
	}
	g.Wait()
	return results, errs.ErrorOrNil()
}

// SearchAll runs one search across every configured backend.
func SearchAll(ctx context.Context, cfg *config.Config, query string) (map[types.ManagerKind][]types.PackageInfo, error) {
	return SearchWith(ctx, cfg, query, configuredManagers(cfg))
}

func SearchWith(ctx context.Context, cfg *config.Config, query string, managers map[types.ManagerKind]PackageManager) (map[types.ManagerKind][]types.PackageInfo, error) {
	var (
		mu      sync.Mutex
		results = map[types.ManagerKind][]types.PackageInfo{}
		errs    *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	for kind, m := range managers {
		kind, m := kind, m
		g.Go(func() error {
			packages, err := m.SearchPackages(ctx, cfg, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debugf("%s: search failed: %v", kind, err)
				errs = multierror.Append(errs, err)
				return nil
			}
			results[kind] = packages
			return nil
		})
	}
	g.Wait()
	return results, errs.ErrorOrNil()
}
