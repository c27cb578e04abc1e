package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// Renderer genera los PDF de la venta cerrada (implementado por pdf.MarotoGenerator).
type Renderer interface {
	GenerateSaleDocument(ctx context.Context, doc sale.ClosedSale) ([]byte, error)
	GenerateSlip(ctx context.Context, doc sale.ClosedSale, tender closing.TenderTotal) ([]byte, error)
}

// FileArchiver guarda el documento RV (PDF + XML + digest) en un directorio.
type FileArchiver struct {
	dir      string
	renderer Renderer
	log      *logger.Logger
}

// NewFileArchiver construye el archivador. El directorio se crea al primer uso.
func NewFileArchiver(dir string, renderer Renderer, log *logger.Logger) *FileArchiver {
	if log == nil {
		log = logger.Nop()
	}
	return &FileArchiver{dir: dir, renderer: renderer, log: log}
}

// Archive escribe RV-<coo>-<cierre>.pdf, .xml y .sha256.
func (a *FileArchiver) Archive(ctx context.Context, doc sale.ClosedSale) error {
	rec, err := BuildRecord(doc)
	if err != nil {
		return err
	}
	pdfBytes, err := a.renderer.GenerateSaleDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("archive: documento RV: %w", err)
	}
	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		return fmt.Errorf("archive: crear directorio: %w", err)
	}

	base := filepath.Join(a.dir, DocumentName(doc))
	files := []struct {
		path string
		data []byte
	}{
		{base + ".pdf", pdfBytes},
		{base + ".xml", rec.XML},
		{base + ".sha256", []byte(rec.Digest + "  " + filepath.Base(base) + ".xml\n")},
	}
	for _, f := range files {
		if err := writeFileAtomic(f.path, f.data); err != nil {
			return err
		}
	}
	a.log.Info().Str("file", base+".pdf").Str("sha256", rec.Digest).Msg("documento RV archivado")
	return nil
}

// DocumentName nombre base (sin extensión) del documento RV.
func DocumentName(doc sale.ClosedSale) string {
	return fmt.Sprintf("RV-%06d-%s", doc.Sale.COO, doc.ClosingID)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("archive: crear temporal: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: escribir %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("archive: cerrar %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("archive: renombrar %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ sale.DocumentArchiver = (*FileArchiver)(nil)
