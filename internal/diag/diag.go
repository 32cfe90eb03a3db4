// Package diag renders localized, human-readable diagnostics for audit and
// conversion findings.
//
// Messages are keyed by Key and looked up in an x/text catalog. Byte sizes go
// through go-humanize so every language shows them the same way.
package diag

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a diagnostic message.
type Key string

// Diagnostic keys.
const (
	SizeExceeded          Key = "size.exceeded"
	VersionMismatch       Key = "version.mismatch"
	VersionUnknown        Key = "version.unknown"
	ResolutionMismatch    Key = "resolution.mismatch"
	ResolutionUnverified  Key = "resolution.unverified"
	ColorImages           Key = "color.images"
	ColorInk              Key = "color.ink"
	ColorUnverified       Key = "color.unverified"
	EncryptionDetected    Key = "encryption.detected"
	EncryptionUnverified  Key = "encryption.unverified"
	ConvertOversize       Key = "convert.oversize"
	PartOversize          Key = "part.oversize"
	CompressNotSmaller    Key = "compress.notsmaller"
	CompressBelowProfile  Key = "compress.belowprofile"
	MergeOversize         Key = "merge.oversize"
	ResolutionUnreadable  Key = "resolution.unreadable"
	EncryptionUnreadable  Key = "encryption.unreadable"
	ColorInkUnreadable    Key = "color.inkunreadable"
	ColorInkEmpty         Key = "color.inkempty"
	ColorSampleUnreadable Key = "color.sampleunreadable"
	VersionHeaderFallback Key = "version.headerfallback"
	MergePagesUnverified  Key = "merge.pagesunverified"
)

var english = map[Key]string{
	SizeExceeded:          "file size %s exceeds the %s limit",
	VersionMismatch:       "PDF version is %s, expected %s",
	VersionUnknown:        "PDF version could not be determined",
	ResolutionMismatch:    "%d of %d images are not exactly %d DPI on both axes",
	ResolutionUnverified:  "image resolution could not be verified: pdfimages is not available",
	ColorImages:           "%d images are not grayscale",
	ColorInk:              "color content detected on page %d",
	ColorUnverified:       "color could not be verified; assuming grayscale",
	EncryptionDetected:    "document is encrypted or password protected",
	EncryptionUnverified:  "encryption could not be verified (qpdf and Ghostscript not available); assuming unencrypted",
	ConvertOversize:       "output is %s, above the %s limit after every quality level; consider splitting",
	PartOversize:          "part %d is %s, above the %s limit; consider more parts",
	CompressNotSmaller:    "compressed output was not smaller; keeping the original",
	CompressBelowProfile:  "tier %s renders images at %d DPI, below the required %d DPI",
	MergeOversize:         "merged document is %s, above the %s limit",
	ResolutionUnreadable:  "image resolution could not be read: %s",
	EncryptionUnreadable:  "qpdf could not inspect the document: %s",
	ColorInkUnreadable:    "ink coverage could not be measured: %s",
	ColorInkEmpty:         "ink coverage reported no pages",
	ColorSampleUnreadable: "color sample could not be rendered: %s",
	VersionHeaderFallback: "PDF version read from the file header",
	MergePagesUnverified:  "merged page count could not be verified: %s",
}

var spanish = map[Key]string{
	SizeExceeded:          "el tamaño del archivo %s supera el límite de %s",
	VersionMismatch:       "la versión PDF es %s, se esperaba %s",
	VersionUnknown:        "no se pudo determinar la versión PDF",
	ResolutionMismatch:    "%d de %d imágenes no tienen exactamente %d DPI en ambos ejes",
	ResolutionUnverified:  "no se pudo verificar la resolución: pdfimages no está disponible",
	ColorImages:           "%d imágenes no están en escala de grises",
	ColorInk:              "se detectó contenido a color en la página %d",
	ColorUnverified:       "no se pudo verificar el color; se asume escala de grises",
	EncryptionDetected:    "el archivo está encriptado o protegido con contraseña",
	EncryptionUnverified:  "no se pudo verificar (qpdf/Ghostscript no disponibles); se asume sin encriptar",
	ConvertOversize:       "el resultado pesa %s, por encima del límite de %s tras todos los niveles de calidad; considere dividirlo",
	PartOversize:          "la parte %d pesa %s, por encima del límite de %s; considere más partes",
	CompressNotSmaller:    "la compresión no redujo el tamaño; se conserva el original",
	CompressBelowProfile:  "el nivel %s deja las imágenes a %d DPI, por debajo de los %d DPI requeridos",
	MergeOversize:         "el documento combinado pesa %s, por encima del límite de %s",
	ResolutionUnreadable:  "no se pudo leer la resolución de las imágenes: %s",
	EncryptionUnreadable:  "qpdf no pudo analizar el documento: %s",
	ColorInkUnreadable:    "no se pudo medir la cobertura de tinta: %s",
	ColorInkEmpty:         "la cobertura de tinta no devolvió ninguna página",
	ColorSampleUnreadable: "no se pudo generar la muestra de color: %s",
	VersionHeaderFallback: "versión PDF leída de la cabecera del archivo",
	MergePagesUnverified:  "no se pudo verificar el número de páginas combinadas: %s",
}

var (
	cat     *catalog.Builder
	matcher language.Matcher
)

// Supported lists the languages with a full message set, default first.
var Supported = []language.Tag{language.English, language.Spanish}

func init() {
	cat = catalog.NewBuilder(catalog.Fallback(language.English))
	register(language.English, english)
	register(language.Spanish, spanish)
	matcher = language.NewMatcher(Supported)
}

func register(tag language.Tag, msgs map[Key]string) {
	for k, v := range msgs {
		if err := cat.SetString(tag, string(k), v); err != nil {
			panic("diag: registering " + string(k) + ": " + err.Error())
		}
	}
}

// Printer formats diagnostics in one language. Safe for concurrent use.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for the best match of lang ("es", "es-MX", "en_US").
// Unknown or empty values fall back to English.
func New(lang string) *Printer {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	tag = language.Make(base.String())
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Language returns the resolved language tag.
func (p *Printer) Language() language.Tag {
	return p.tag
}

// Sprintf formats the message for key.
func (p *Printer) Sprintf(key Key, args ...any) string {
	return p.p.Sprintf(string(key), args...)
}

// Bytes renders a byte count in IEC units (2.0 MiB).
func (p *Printer) Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
