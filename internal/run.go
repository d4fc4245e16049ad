package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/internal/monitor"
	"github.com/dbferry/dbferry/internal/pack"
	"github.com/dbferry/dbferry/internal/report"
	"github.com/dbferry/dbferry/internal/rotate"
	"github.com/dbferry/dbferry/internal/updater"
	"github.com/dbferry/dbferry/pkg/dataset"
	diskutil "github.com/dbferry/dbferry/pkg/disk"
	"github.com/dbferry/dbferry/pkg/fetcher"
	"github.com/dbferry/dbferry/pkg/journal"
	"github.com/dbferry/dbferry/pkg/lifecycle"
	"github.com/dbferry/dbferry/pkg/probe"
	"github.com/dbferry/dbferry/pkg/scanner"
	"github.com/dbferry/dbferry/pkg/verifier"
)

// DoSetup performs the initial fetch, verify and promote when no active
// dataset exists yet.
func DoSetup(ctx context.Context, conf *config.LifecycleConfig) error {
	if dataset.Present(conf.ActiveDir()) {
		log.Printf("Dataset is already initialized, use update to refresh it")
		return nil
	}

	return runCycle(ctx, conf)
}

// DoUpdate runs a full lifecycle cycle: fetch, verify, backup, promote.
func DoUpdate(ctx context.Context, conf *config.LifecycleConfig) error {
	return runCycle(ctx, conf)
}

// runCycle is the state machine: Idle → Staged → Verified → BackedUp →
// Promoted. Every arrow is a gate; failure at any gate aborts the cycle and
// leaves the active dataset exactly as it was.
func runCycle(ctx context.Context, conf *config.LifecycleConfig) error {
	started := time.Now()
	stage := lifecycle.StageIdle

	if err := dataset.MkFolder(conf.DataRoot); err != nil {
		return err
	}

	lock, err := updater.Acquire(conf.LockFile())
	if err != nil {
		if errors.Is(err, lifecycle.ErrConcurrentRun) {
			log.Printf("Another cycle holds %s, exiting", conf.LockFile())
		}
		return err
	}
	defer lock.Release()

	var cycleVersion, detail string
	defer func() {
		recordCycle(conf, started, cycleVersion, stage, detail)
	}()

	// Reset clears derived state only; the active dataset is replaced by
	// the promotion itself so the live path never goes empty.
	reset := ctx.Value("reset") != nil && ctx.Value("reset").(bool)
	if reset {
		log.Printf(config.Yellow("Resetting derived dataset state before refetch"))

		for _, path := range []string{conf.MirrorDir(), conf.AuxDir()} {
			if err := os.RemoveAll(path); err != nil {
				detail = err.Error()
				return err
			}
		}
	}

	if !probe.Reachable(ctx, conf.ProbeEndpoint, conf.ProbeTimeout()) {
		detail = "origin unreachable"
		return lifecycle.ErrNoConnectivity
	}

	// A staging copy of the dataset plus the promotion copy must fit
	if err := diskutil.EnsureFree(conf.DataRoot, 4*conf.MinDBSize); err != nil {
		// Under disk pressure, give up old backups before giving up the cycle
		log.Printf(config.Yellow("Low disk space, pruning backups down to %d"), conf.RetainCleanup)

		cleaner := &rotate.Rotator{BackupsDir: conf.BackupsDir()}
		if perr := cleaner.Prune(conf.RetainCleanup); perr != nil {
			log.Printf("failed to prune backups: %v", perr)
		}

		if err := diskutil.EnsureFree(conf.DataRoot, 4*conf.MinDBSize); err != nil {
			detail = err.Error()
			return err
		}
	}

	f, err := fetcher.NewFetcher(conf)
	if err != nil {
		detail = err.Error()
		return err
	}

	stagingDir := fetcher.StagingPath(conf, fmt.Sprintf("fetch-%d", os.Getpid()))
	auxStaging := fetcher.StagingPath(conf, fmt.Sprintf("fetch-aux-%d", os.Getpid()))
	defer func() {
		_ = os.RemoveAll(stagingDir)
		_ = os.RemoveAll(auxStaging)
	}()

	skipAux := ctx.Value("skipAux") != nil && ctx.Value("skipAux").(bool)
	auxDegraded := false

	// Primary and auxiliary write to disjoint staging directories and can
	// run side by side; only the primary result gates the cycle.
	var wg sync.WaitGroup
	if !skipAux {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := f.FetchAuxiliary(ctx, auxStaging); err != nil {
				log.Printf(config.Yellow("auxiliary dataset unavailable, continuing degraded: %v"), err)
				auxDegraded = true
			}
		}()
	}

	log.Printf(config.Green("Fetching dataset from %s"), conf.OriginImage)

	snapshot, err := f.FetchPrimary(ctx, stagingDir)
	wg.Wait()
	if err != nil {
		detail = err.Error()
		return err
	}
	stage = lifecycle.StageStaged
	cycleVersion = snapshot.Version

	v := &verifier.Verifier{
		MinDBSize:   conf.MinDBSize,
		WarnAgeDays: conf.MaxAgeDays,
	}

	// Reset also waives the regression guard, allowing an explicit refetch
	// of an older dataset generation
	if !reset && dataset.Present(conf.ActiveDir()) {
		if activeMeta, err := dataset.LoadMetadata(filepath.Join(conf.ActiveDir(), dataset.MetadataFile)); err == nil {
			v.ActiveVersion = activeMeta.Version
		}
	}

	result := v.Verify(stagingDir)
	if err := result.Err(); err != nil {
		detail = result.Reason
		return err
	}
	stage = lifecycle.StageVerified

	if result.Stale {
		log.Printf(config.Yellow("Fetched dataset is already %d days old"), result.AgeDays)
	}

	rotator := &rotate.Rotator{BackupsDir: conf.BackupsDir()}

	if dataset.Present(conf.ActiveDir()) {
		backup, err := rotator.SnapshotCurrent(conf.ActiveDir(), conf.MirrorDir())
		if err != nil {
			detail = err.Error()
			return err
		}
		log.Printf("Backed up current dataset to %s", backup)

		if err := rotator.Prune(conf.RetainBackups); err != nil {
			log.Printf("failed to prune backups: %v", err)
		}
	}
	stage = lifecycle.StageBackedUp

	up := &updater.Updater{
		ActiveDir: conf.ActiveDir(),
		MirrorDir: conf.MirrorDir(),
	}

	if err := up.Promote(stagingDir); err != nil {
		if errors.Is(err, lifecycle.ErrCacheSyncDegraded) {
			// The dataset is authoritative; the mirror is best-effort
			log.Printf(config.Yellow("%v"), err)
		} else {
			detail = err.Error()
			return err
		}
	}
	stage = lifecycle.StagePromoted

	if !skipAux && !auxDegraded {
		if err := dataset.CopyDir(auxStaging, conf.AuxDir()); err != nil {
			log.Printf(config.Yellow("failed to install auxiliary dataset: %v"), err)
			auxDegraded = true
		}
	}

	if auxDegraded {
		detail = "aux: degraded"
	}

	log.Printf(config.Green("Dataset version %s promoted, age %d days"),
		snapshot.Version, result.AgeDays)

	return nil
}

// recordCycle journals the cycle outcome; journaling never fails the cycle.
func recordCycle(conf *config.LifecycleConfig, started time.Time, version string, stage lifecycle.Stage, detail string) {
	outcome := "success"
	if stage != lifecycle.StagePromoted {
		outcome = fmt.Sprintf("failed at %s", stage)
	}

	j, err := journal.Open(conf.JournalFile())
	if err != nil {
		log.Printf("failed to open journal: %v", err)
		return
	}
	defer j.Close()

	if err := j.Record(started, version, outcome, string(stage), detail); err != nil {
		log.Printf("failed to record cycle: %v", err)
	}
}

// DoPackage produces a distribution package from the active dataset.
func DoPackage(ctx context.Context, conf *config.LifecycleConfig) error {
	name := ""
	if ctx.Value("name") != nil {
		name = ctx.Value("name").(string)
	}

	withAux := ctx.Value("withAux") != nil && ctx.Value("withAux").(bool)

	p := &pack.Packager{Conf: conf}

	bundle, err := p.Package(name, withAux)
	if err != nil {
		return err
	}

	log.Printf(config.Green("Package is saved in: %s"), bundle)
	return nil
}

// DoCheckAge reports the active dataset's staleness. A stale dataset is an
// error so the process exits non-zero.
func DoCheckAge(ctx context.Context, conf *config.LifecycleConfig) error {
	maxAge := conf.MaxAgeDays
	if ctx.Value("maxAge") != nil {
		maxAge = ctx.Value("maxAge").(int)
	}

	status, err := monitor.CheckAge(conf.ActiveDir(), maxAge, time.Now())
	if err != nil {
		return err
	}

	report.ResolveAge(status, maxAge)

	if status.Stale {
		return fmt.Errorf("dataset is %d days old, maximum is %d", status.AgeDays, maxAge)
	}

	return nil
}

// DoPrune removes old backups beyond the retention count.
func DoPrune(ctx context.Context, conf *config.LifecycleConfig) error {
	retain := conf.RetainBackups
	if ctx.Value("retain") != nil {
		retain = ctx.Value("retain").(int)
	}

	rotator := &rotate.Rotator{BackupsDir: conf.BackupsDir()}
	return rotator.Prune(retain)
}

// DoHistory prints recorded update cycles.
func DoHistory(ctx context.Context, conf *config.LifecycleConfig) error {
	limit := 20
	if ctx.Value("limit") != nil {
		limit = ctx.Value("limit").(int)
	}

	j, err := journal.Open(conf.JournalFile())
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(limit)
	if err != nil {
		return err
	}

	report.ResolveHistory(entries)
	return nil
}

// DoScan runs the external scanning engine against one image using the
// offline dataset and prints a severity summary for JSON reports.
func DoScan(ctx context.Context, conf *config.LifecycleConfig, imageRef string) error {
	sa, err := scanner.NewScanApi(conf)
	if err != nil {
		return err
	}

	opts := scanner.Options{}
	if ctx.Value("format") != nil {
		opts.Format = ctx.Value("format").(string)
	}
	if ctx.Value("severities") != nil {
		opts.Severities = ctx.Value("severities").([]string)

		for _, severity := range opts.Severities {
			if _, ok := config.SeverityMap[strings.ToLower(severity)]; !ok {
				return fmt.Errorf("unknown severity %q", severity)
			}
		}
	}

	log.Printf(config.Green("Scanning %s with the offline dataset"), imageRef)

	out, err := sa.ScanImage(ctx, imageRef, opts)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		report.ResolveScanSummary(imageRef, scanner.Summarize(out))
	} else {
		fmt.Println(out)
	}

	if ctx.Value("output") != nil && ctx.Value("output").(string) != "" {
		if _, err := report.SaveScan(conf, ctx.Value("output").(string), out); err != nil {
			return err
		}
	}

	return nil
}

// DoList prints the docker images available on this host.
func DoList(ctx context.Context, conf *config.LifecycleConfig) error {
	sa, err := scanner.NewScanApi(conf)
	if err != nil {
		return err
	}

	images, err := sa.ListLocalImages(ctx)
	if err != nil {
		return err
	}

	report.ResolveImages(images)
	return nil
}
