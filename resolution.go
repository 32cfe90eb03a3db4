package pdfcomply

import (
	"bufio"
	"strconv"
	"strings"
)

// ImageRecord is one row of the page-image metadata inspector.
type ImageRecord struct {
	Page      int    `json:"page"`
	Num       int    `json:"num"`
	Type      string `json:"type"` // image, smask, mask, stencil
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Color     string `json:"color"` // gray, rgb, cmyk, icc, index, ...
	Comp      int    `json:"comp"`  // components per pixel
	BPC       int    `json:"bpc"`
	XPPI      int    `json:"xPPI"`
	YPPI      int    `json:"yPPI"`
	Compliant bool   `json:"compliant"`
}

// Gray reports whether the image stores a single channel.
func (r ImageRecord) Gray() bool {
	switch r.Color {
	case "gray":
		return true
	case "icc":
		return r.Comp == 1
	}
	return false
}

// pdfimages -list column positions.
const (
	colPage   = 0
	colNum    = 1
	colType   = 2
	colWidth  = 3
	colHeight = 4
	colColor  = 5
	colComp   = 6
	colBPC    = 7
	colXPPI   = 12
	colYPPI   = 13
	minCols   = 14
)

// ParseImageList parses the table printed by "pdfimages -list". Header,
// separator and malformed rows are skipped.
func ParseImageList(out string) []ImageRecord {
	var records []ImageRecord
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < minCols {
			continue
		}
		page, err := strconv.Atoi(fields[colPage])
		if err != nil {
			continue
		}
		xppi, errX := strconv.Atoi(fields[colXPPI])
		yppi, errY := strconv.Atoi(fields[colYPPI])
		if errX != nil || errY != nil {
			continue
		}
		records = append(records, ImageRecord{
			Page:   page,
			Num:    atoi(fields[colNum]),
			Type:   fields[colType],
			Width:  atoi(fields[colWidth]),
			Height: atoi(fields[colHeight]),
			Color:  fields[colColor],
			Comp:   atoi(fields[colComp]),
			BPC:    atoi(fields[colBPC]),
			XPPI:   xppi,
			YPPI:   yppi,
		})
	}
	return records
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ResolutionReport is the verdict of EvaluateResolution.
type ResolutionReport struct {
	Valid   bool          `json:"valid"`
	Target  int           `json:"target"`
	Total   int           `json:"total"`
	Invalid int           `json:"invalid"`
	Images  []ImageRecord `json:"images"`
}

// EvaluateResolution marks each record compliant when both axes equal target
// exactly. A document without images is valid; a single off-target image
// invalidates it. No rounding or averaging is applied.
func EvaluateResolution(records []ImageRecord, target int) ResolutionReport {
	rep := ResolutionReport{
		Valid:  true,
		Target: target,
		Total:  len(records),
		Images: make([]ImageRecord, len(records)),
	}
	for i, r := range records {
		r.Compliant = r.XPPI == target && r.YPPI == target
		if !r.Compliant {
			rep.Invalid++
			rep.Valid = false
		}
		rep.Images[i] = r
	}
	return rep
}
