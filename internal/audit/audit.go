// Package audit periodically compares the uploads directory against the
// image files product rows reference. A crash between a database write
// and the matching file deletion can strand a file on disk; the audit
// makes that visible in the logs. It never deletes anything.
package audit

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/shop-admin/internal/model"
)

// ProductLister is the read-only product access the audit needs.
type ProductLister interface {
	List(ctx context.Context, filter *model.ProductFilter) ([]*model.Product, error)
}

// Auditor runs the orphaned-file scan on a cron schedule.
type Auditor struct {
	products ProductLister
	dir      string
	cron     *cron.Cron
}

func New(products ProductLister, dir string) *Auditor {
	return &Auditor{
		products: products,
		dir:      dir,
		cron:     cron.New(),
	}
}

// Start schedules the scan. The schedule is any cron expression accepted
// by robfig/cron, including descriptors like @daily.
func (a *Auditor) Start(schedule string) error {
	_, err := a.cron.AddFunc(schedule, func() {
		if err := a.Scan(context.Background()); err != nil {
			log.Printf("Upload audit failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	a.cron.Start()
	log.Printf("Upload audit scheduled (%s)", schedule)
	return nil
}

// Stop stops the cron scheduler, waiting for a running scan to finish.
func (a *Auditor) Stop() {
	<-a.cron.Stop().Done()
}

// Scan logs every file in the uploads directory that no product row
// references.
func (a *Auditor) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	products, err := a.products.List(ctx, nil)
	if err != nil {
		return err
	}

	referenced := make(map[string]bool)
	for _, product := range products {
		for _, img := range product.Images {
			referenced[img.Filename] = true
		}
	}

	orphans := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		orphans++
		log.Printf("Upload audit: orphaned file %s", filepath.Join(a.dir, entry.Name()))
	}

	log.Printf("Upload audit: %d files on disk, %d referenced, %d orphaned",
		len(entries), len(referenced), orphans)
	return nil
}
