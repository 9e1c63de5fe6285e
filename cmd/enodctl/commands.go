package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dd0wney/enod/pkg/backup"
	"github.com/dd0wney/enod/pkg/record"
	"github.com/dd0wney/enod/pkg/tsdb"
)

func (e *env) open() (*tsdb.Engine, error) {
	return tsdb.Open(e.cfg.DataFile, e.cfg.TSDBOptions(e.logger)...)
}

func (e *env) openReadOnly() (*tsdb.Engine, error) {
	return tsdb.OpenReadOnly(e.cfg.DataFile, e.cfg.TSDBOptions(e.logger)...)
}

// withEngine opens the data file, runs fn and closes it again.
func (e *env) withEngine(readOnly bool, fn func(db *tsdb.Engine) error) error {
	open := e.open
	if readOnly {
		open = e.openReadOnly
	}
	db, err := open()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func parseValue(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: must be 0-255", s)
	}
	return byte(v), nil
}

func wantArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", cmd, n, len(args))
	}
	return nil
}

func cmdCreate(e *env, args []string) error {
	if err := wantArgs("create", args, 0); err != nil {
		return err
	}
	db, err := tsdb.Create(e.cfg.DataFile, e.cfg.TSDBOptions(e.logger)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "created %s\n", e.cfg.DataFile)
	return db.Close()
}

func cmdInfo(e *env, args []string) error {
	if err := wantArgs("info", args, 0); err != nil {
		return err
	}
	return e.withEngine(true, func(db *tsdb.Engine) error {
		st := db.Stats()
		fmt.Fprintf(e.out, "path:        %s\n", st.Path)
		fmt.Fprintf(e.out, "records:     %d\n", st.Records)
		fmt.Fprintf(e.out, "trimmed:     %d\n", st.FirstValid)
		fmt.Fprintf(e.out, "file size:   %d bytes\n", st.FileSize)
		if st.Empty {
			fmt.Fprintln(e.out, "range:       empty")
		} else {
			fmt.Fprintf(e.out, "range:       [%d, %d]\n", st.Min, st.Max)
		}
		return nil
	})
}

func cmdInsert(e *env, args []string) error {
	if len(args) == 0 || len(args)%2 != 0 {
		return errors.New("insert takes <ts> <value> pairs")
	}

	samples := make([]record.Sample, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		ts, err := parseUint("timestamp", args[i])
		if err != nil {
			return err
		}
		v, err := parseValue(args[i+1])
		if err != nil {
			return err
		}
		samples = append(samples, record.Sample{Timestamp: ts, Value: v})
	}

	return e.withEngine(false, func(db *tsdb.Engine) error {
		if err := db.InsertBatch(samples); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "inserted %d sample(s)\n", len(samples))
		return nil
	})
}

func cmdGet(e *env, args []string) error {
	if err := wantArgs("get", args, 1); err != nil {
		return err
	}
	ts, err := parseUint("timestamp", args[0])
	if err != nil {
		return err
	}
	return e.withEngine(true, func(db *tsdb.Engine) error {
		s, err := db.Get(ts)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, s)
		return nil
	})
}

func cmdRange(e *env, args []string) error {
	if err := wantArgs("range", args, 2); err != nil {
		return err
	}
	start, err := parseUint("start", args[0])
	if err != nil {
		return err
	}
	end, err := parseUint("end", args[1])
	if err != nil {
		return err
	}
	return e.withEngine(true, func(db *tsdb.Engine) error {
		for s, err := range db.Range(start, end) {
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, s)
		}
		return nil
	})
}

func cmdTrim(e *env, args []string) error {
	if err := wantArgs("trim", args, 1); err != nil {
		return err
	}
	n, err := parseUint("count", args[0])
	if err != nil {
		return err
	}
	return e.withEngine(false, func(db *tsdb.Engine) error {
		before := db.Count()
		if err := db.TrimOldest(n); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "trimmed %d sample(s)\n", before-db.Count())
		return nil
	})
}

func cmdTrimBefore(e *env, args []string) error {
	if err := wantArgs("trim-before", args, 1); err != nil {
		return err
	}
	ts, err := parseUint("timestamp", args[0])
	if err != nil {
		return err
	}
	return e.withEngine(false, func(db *tsdb.Engine) error {
		n, err := db.TrimBefore(ts)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "trimmed %d sample(s)\n", n)
		return nil
	})
}

func cmdCompact(e *env, args []string) error {
	if err := wantArgs("compact", args, 0); err != nil {
		return err
	}
	return e.withEngine(false, func(db *tsdb.Engine) error {
		before := db.Stats().FileSize
		if err := db.Compact(); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "compacted: %d -> %d bytes\n", before, db.Stats().FileSize)
		return nil
	})
}

func cmdVerify(e *env, args []string) error {
	if err := wantArgs("verify", args, 0); err != nil {
		return err
	}
	return e.withEngine(true, func(db *tsdb.Engine) error {
		report, err := db.Verify()
		if err != nil {
			return err
		}
		if report.Records == 0 {
			fmt.Fprintln(e.out, "ok: empty")
			return nil
		}
		fmt.Fprintf(e.out, "ok: %d records in [%d, %d]\n", report.Records, report.First, report.Last)
		return nil
	})
}

// snapshotFlags parses the target of backup and restore: a local file or an
// S3 key.
func snapshotFlags(name, fileFlag string, args []string) (file, key string, useS3 bool, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&file, fileFlag, "", "Local snapshot file")
	fs.StringVar(&key, "s3", "", "S3 object key (backup: empty generates one)")
	s3 := fs.Bool("to-s3", false, "Use the configured S3 bucket")
	if err := fs.Parse(args); err != nil {
		return "", "", false, err
	}

	useS3 = *s3 || key != ""
	if file == "" && !useS3 {
		return "", "", false, fmt.Errorf("%s needs -%s or -s3", name, fileFlag)
	}
	if file != "" && useS3 {
		return "", "", false, fmt.Errorf("%s takes either -%s or -s3, not both", name, fileFlag)
	}
	return file, key, useS3, nil
}

func (e *env) s3Store(ctx context.Context) (*backup.S3Store, error) {
	return backup.NewS3Store(ctx, e.cfg.S3Config())
}

func cmdBackup(e *env, args []string) error {
	file, key, useS3, err := snapshotFlags("backup", "out", args)
	if err != nil {
		return err
	}

	return e.withEngine(true, func(db *tsdb.Engine) error {
		if useS3 {
			ctx := context.Background()
			store, err := e.s3Store(ctx)
			if err != nil {
				return err
			}
			if key == "" {
				key = backup.NewKey("")
			}
			m, err := backup.Upload(ctx, store, db, key, e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "uploaded %d sample(s) to s3://%s/%s%s\n", m.Count, e.cfg.Backup.Bucket, e.cfg.Backup.Prefix, key)
			return nil
		}

		m, err := writeSnapshot(file, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "wrote %d sample(s) to %s\n", m.Count, file)
		return nil
	})
}

// writeSnapshot writes a backup of db to path. A partial snapshot is removed.
func writeSnapshot(path string, db *tsdb.Engine) (backup.Manifest, error) {
	f, err := os.Create(path)
	if err != nil {
		return backup.Manifest{}, err
	}
	m, err := backup.Write(f, db)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return m, err
	}
	return m, nil
}

func cmdRestore(e *env, args []string) error {
	file, key, useS3, err := snapshotFlags("restore", "in", args)
	if err != nil {
		return err
	}

	var (
		db *tsdb.Engine
		m  backup.Manifest
	)
	if useS3 {
		if key == "" {
			return errors.New("restore needs an explicit -s3 key")
		}
		ctx := context.Background()
		store, err := e.s3Store(ctx)
		if err != nil {
			return err
		}
		db, m, err = backup.Download(ctx, store, key, e.cfg.DataFile, e.logger, e.cfg.TSDBOptions(e.logger)...)
		if err != nil {
			return err
		}
	} else {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		db, m, err = backup.Restore(f, e.cfg.DataFile, e.cfg.TSDBOptions(e.logger)...)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(e.out, "restored %d sample(s) into %s\n", m.Count, e.cfg.DataFile)
	return db.Close()
}
