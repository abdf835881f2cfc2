// Package igra parses the IGRA v2 fixed-format upper-air sounding archive.
//
// The archive repeats one header line per balloon launch followed by exactly
// NUMLEV level lines. Header lines start with '#'; field positions follow the
// igra2-data-format description published with the archive:
//
//	header: #ID(1:12) YEAR(14:17) MONTH(19:20) DAY(22:23) HOUR(25:26)
//	        RELTIME(28:31) NUMLEV(33:36) ...
//	level:  LVLTYP1(1) LVLTYP2(2) ETIME(4:8) PRESS(10:15, Pa) PFLAG
//	        GPH(17:21, m) ZFLAG TEMP(23:27, tenths °C) TFLAG
//	        RH(29:33, tenths %) ...
//
// Malformed individual soundings (unparseable timestamp) are skipped with a
// warning; a header-position line that does not start with '#' or a file that
// ends mid-sounding means the format itself is broken and parsing aborts.
package igra

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// igraSentinels are the archive's missing-data markers: -9999 never reported,
// -8888 removed by quality control.
var igraSentinels = []float64{-8888, -9999}

// ParseError reports systemic format corruption that aborts the run, as
// opposed to a malformed individual sounding, which is skipped.
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("igra: %s:%d: %s", e.Path, e.Line, e.Reason)
}

// Stats counts what the parser saw in one file.
type Stats struct {
	Soundings int // soundings delivered to the callback
	Skipped   int // soundings dropped for malformed timestamps
}

// Parser reads IGRA archives. The logger receives one warning per skipped
// sounding.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser that logs skipped soundings to logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile streams the soundings of the archive at path to fn in file order.
// Returning an error from fn stops parsing and propagates the error.
func (p *Parser) ParseFile(path string, fn func(domain.Sounding) error) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open sounding archive: %w", err)
	}
	defer f.Close()

	return p.Parse(f, path, fn)
}

// Parse streams soundings from r. The path parameter is used only for error
// and log messages.
func (p *Parser) Parse(r io.Reader, path string, fn func(domain.Sounding) error) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		header := scanner.Text()
		if len(header) == 0 || header[0] != '#' {
			return stats, &ParseError{Path: path, Line: lineNo, Reason: "expected '#' header line"}
		}

		stationID := field(header, 1, 12)
		year := intField(header, 13, 17)
		month := intField(header, 18, 20)
		day := intField(header, 21, 23)
		hour := intField(header, 24, 26)
		numLevels := intField(header, 32, 36)
		if numLevels == nil {
			return stats, &ParseError{Path: path, Line: lineNo, Reason: "header level count is not numeric"}
		}

		levels := make([]domain.SoundingLevel, 0, *numLevels)
		for i := 0; i < *numLevels; i++ {
			if !scanner.Scan() {
				return stats, &ParseError{
					Path: path, Line: lineNo,
					Reason: fmt.Sprintf("archive ends after %d of %d declared levels", i, *numLevels),
				}
			}
			lineNo++
			if lvl, ok := parseLevel(scanner.Text()); ok {
				levels = append(levels, lvl)
			}
		}

		launch, ok := launchTime(year, month, day, hour)
		if !ok {
			stats.Skipped++
			p.logger.Warn("skipping sounding with malformed timestamp",
				"file", path, "line", lineNo-*numLevels, "station", stationID)
			continue
		}

		stats.Soundings++
		if err := fn(domain.Sounding{StationID: stationID, Time: launch, Levels: levels}); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read sounding archive: %w", err)
	}
	return stats, nil
}

// parseLevel decodes one fixed-width level line. Lines without a usable
// pressure reading carry no information for the stability indicators and are
// dropped, matching the archive's LVLTYP1=3 non-pressure records.
func parseLevel(line string) (domain.SoundingLevel, bool) {
	majorType := intField(line, 0, 1)
	pressurePa := domain.FloatOrMissing(field(line, 9, 15), igraSentinels...)
	if majorType == nil || pressurePa == nil {
		return domain.SoundingLevel{}, false
	}

	return domain.SoundingLevel{
		MajorType:        *majorType,
		Pressure:         domain.Float(*pressurePa / 100.0), // Pa → hPa
		Height:           domain.FloatOrMissing(field(line, 16, 21), igraSentinels...),
		Temperature:      domain.ScaleOptional(domain.FloatOrMissing(field(line, 22, 27), igraSentinels...), 10.0),
		RelativeHumidity: domain.ScaleOptional(domain.FloatOrMissing(field(line, 28, 33), igraSentinels...), 10.0),
	}, true
}

// launchTime builds the launch timestamp. Year, month and day are mandatory;
// a missing or out-of-range hour (IGRA uses 99 for unknown) clamps to 00.
func launchTime(year, month, day, hour *int) (time.Time, bool) {
	if year == nil || month == nil || day == nil {
		return time.Time{}, false
	}
	if *month < 1 || *month > 12 || *day < 1 || *day > 31 {
		return time.Time{}, false
	}
	h := 0
	if hour != nil && *hour >= 0 && *hour <= 23 {
		h = *hour
	}
	return time.Date(*year, time.Month(*month), *day, h, 0, 0, 0, time.UTC), true
}

// field returns the byte range [start, end) of line, clamped to its length.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}

// intField parses a fixed-width integer field, mapping sentinels to nil.
func intField(line string, start, end int) *int {
	v := domain.FloatOrMissing(field(line, start, end), igraSentinels...)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
