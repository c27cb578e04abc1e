// Package paf archivo auxiliar del PAF-ECF: propiedades clave=valor (GT,
// MD5 del ejecutable, banderas regionales) guardadas cifradas en disco.
package paf

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain"
)

var _ sale.AuditStore = (*Store)(nil)

// Formato del archivo: magic | salt | nonce | XChaCha20-Poly1305(propiedades).
const (
	magic    = "PAF1"
	saltSize = 16
)

// Parámetros argon2id para derivar la clave desde la frase.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

// ErrWrongPassphrase la frase no descifra el archivo (o el archivo fue alterado).
var ErrWrongPassphrase = errors.New("paf: frase incorrecta o archivo alterado")

// Store propiedades en memoria; Seal las cifra y las escribe de forma atómica.
type Store struct {
	mu         sync.RWMutex
	path       string
	passphrase []byte
	props      map[string]string
}

// Open carga el archivo si existe; si no, arranca vacío.
func Open(path, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: frase del archivo auxiliar vacía", domain.ErrInvalidInput)
	}
	s := &Store{path: path, passphrase: []byte(passphrase), props: map[string]string{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer archivo auxiliar: %w", err)
	}
	plain, err := s.open(raw)
	if err != nil {
		return nil, err
	}
	s.props = decodeProperties(plain)
	return s, nil
}

// Get devuelve "" si la clave no existe.
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props[key]
}

// Set cambia una propiedad en memoria; se persiste con Seal.
func (s *Store) Set(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n") {
		return fmt.Errorf("%w: clave %q", domain.ErrInvalidInput, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[key] = value
	return nil
}

// Keys claves ordenadas.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.props))
	for k := range s.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Seal cifra las propiedades y reemplaza el archivo (escritura en temporal + rename).
func (s *Store) Seal(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.seal(encodeProperties(s.props))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("crear directorio del archivo auxiliar: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".paf-*")
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("escribir temporal: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cerrar temporal: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("reemplazar archivo auxiliar: %w", err)
	}
	return nil
}

func (s *Store) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generar salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, fmt.Errorf("crear cifrador: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generar nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltSize+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, []byte(magic)), nil
}

func (s *Store) open(raw []byte) ([]byte, error) {
	header := len(magic) + saltSize + chacha20poly1305.NonceSizeX
	if len(raw) < header || !bytes.HasPrefix(raw, []byte(magic)) {
		return nil, fmt.Errorf("%w: cabecera inválida", ErrWrongPassphrase)
	}
	salt := raw[len(magic) : len(magic)+saltSize]
	nonce := raw[len(magic)+saltSize : header]
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, fmt.Errorf("crear cifrador: %w", err)
	}
	plain, err := aead.Open(nil, nonce, raw[header:], []byte(magic))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
var valueUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n")

// encodeProperties una propiedad por línea, ordenadas por clave.
func encodeProperties(props map[string]string) []byte {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b bytes.Buffer
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(valueEscaper.Replace(props[k]))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func decodeProperties(plain []byte) map[string]string {
	props := map[string]string{}
	for _, line := range strings.Split(string(plain), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok || k == "" {
			continue
		}
		props[k] = valueUnescaper.Replace(v)
	}
	return props
}
