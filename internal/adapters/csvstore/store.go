package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Blickwinkle262/DutchRentScope/internal/core/domain"
)

// utf-8 BOM, чтобы Excel корректно открывал файлы с нелатинскими символами
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeaders = map[string][]string{
	"detail": {
		"house_id", "url", "city", "post_code", "address", "neighborhood",
		"status", "offering_type", "price", "service_cost", "deposit",
		"living_area", "plot_area", "volume", "rooms", "bedrooms", "bathrooms",
		"year_built", "house_type", "interior", "energy_label", "parking",
		"garden", "insulation", "heating", "listed_since", "available_at",
		"description", "agency_name", "crawled_at", "parse_warning",
	},
	"listing": {
		"id", "status", "object_type", "construction_type", "energy_label",
		"city", "postal_code", "street_name", "house_number", "neighborhood",
		"floor_area", "plot_area", "bedrooms", "price", "agency_name",
		"publish_date", "detail_url",
	},
	"images": {
		"house_id", "photo_id", "url",
	},
}

type csvSink struct {
	file   *os.File
	writer *csv.Writer
}

// CsvHouseStore дописывает данные обхода в CSV файлы, по файлу на вид
// записи. Имя файла состоит из порядкового номера, вида записи, типа
// предложения и даты; заголовок пишется один раз при создании файла.
type CsvHouseStore struct {
	mu       sync.Mutex
	dir      string
	offering domain.OfferingType
	runDate  string
	sinks    map[string]*csvSink
}

// NewCsvHouseStore создает хранилище. Файлы открываются лениво при
// первой записи соответствующего вида.
func NewCsvHouseStore(dir string, offering domain.OfferingType) (*CsvHouseStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv store: failed to create dir %s: %w", dir, err)
	}
	return &CsvHouseStore{
		dir:      dir,
		offering: offering,
		runDate:  time.Now().Format("2006-01-02"),
		sinks:    make(map[string]*csvSink),
	}, nil
}

// nextFileNumber возвращает порядковый номер для имени нового файла.
func nextFileNumber(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	max := 0
	for _, entry := range entries {
		prefix, _, found := strings.Cut(entry.Name(), "_")
		if !found {
			continue
		}
		if n, err := strconv.Atoi(prefix); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// sinkFor возвращает писатель для вида записи, открывая файл при первом
// обращении. Вызывается под mu.
func (s *CsvHouseStore) sinkFor(kind string) (*csvSink, error) {
	if sink, ok := s.sinks[kind]; ok {
		return sink, nil
	}

	header, ok := csvHeaders[kind]
	if !ok {
		return nil, fmt.Errorf("csv store: unknown record kind %q", kind)
	}

	name := fmt.Sprintf("%d_%s_%s_%s.csv", nextFileNumber(s.dir), kind, s.offering, s.runDate)
	path := filepath.Join(s.dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv store: failed to open %s: %w", path, err)
	}

	sink := &csvSink{file: file, writer: csv.NewWriter(file)}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("csv store: failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, fmt.Errorf("csv store: failed to write BOM: %w", err)
		}
		if err := sink.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("csv store: failed to write header: %w", err)
		}
		sink.writer.Flush()
	}

	s.sinks[kind] = sink
	return sink, nil
}

func (s *CsvHouseStore) writeRow(kind string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sink, err := s.sinkFor(kind)
	if err != nil {
		return err
	}
	if err := sink.writer.Write(row); err != nil {
		return fmt.Errorf("csv store: failed to write %s row: %w", kind, err)
	}
	sink.writer.Flush()
	if err := sink.writer.Error(); err != nil {
		return fmt.Errorf("csv store: failed to flush %s: %w", kind, err)
	}
	return nil
}

// SaveDetail дописывает строку детали. Файловое хранилище не
// версионирует, каждая запись считается созданной.
func (s *CsvHouseStore) SaveDetail(ctx context.Context, detail *domain.HouseDetail) (domain.UpsertOutcome, error) {
	row := []string{
		strconv.FormatInt(detail.HouseID, 10),
		detail.URL,
		detail.City,
		detail.PostCode,
		detail.Address,
		detail.Neighborhood,
		detail.Status,
		string(detail.OfferingType),
		strconv.FormatFloat(detail.Price, 'f', -1, 64),
		strconv.FormatFloat(detail.ServiceCost, 'f', -1, 64),
		strconv.FormatFloat(detail.Deposit, 'f', -1, 64),
		strconv.Itoa(detail.LivingArea),
		strconv.Itoa(detail.PlotArea),
		strconv.Itoa(detail.Volume),
		strconv.Itoa(detail.Rooms),
		strconv.Itoa(detail.Bedrooms),
		strconv.Itoa(detail.Bathrooms),
		strconv.Itoa(detail.YearBuilt),
		detail.HouseType,
		detail.Interior,
		detail.EnergyLabel,
		detail.Parking,
		detail.Garden,
		detail.Insulation,
		detail.Heating,
		detail.ListedSince,
		detail.AvailableAt,
		detail.Description,
		detail.AgencyName,
		detail.CrawledAt.Format(time.RFC3339),
		detail.ParseWarning,
	}
	if err := s.writeRow("detail", row); err != nil {
		return "", err
	}
	return domain.OutcomeCreated, nil
}

// SaveListingSummary дописывает карточку поисковой выдачи.
func (s *CsvHouseStore) SaveListingSummary(ctx context.Context, p *domain.Property) error {
	firstOr := func(vals []int) string {
		if len(vals) == 0 {
			return "0"
		}
		return strconv.Itoa(vals[0])
	}

	publishDate := ""
	if !p.PublishDate.IsZero() {
		publishDate = p.PublishDate.Format(time.RFC3339)
	}

	row := []string{
		strconv.FormatInt(p.ID, 10),
		p.AvailabilityStatus,
		p.ObjectType,
		p.ConstructionType,
		p.EnergyLabel,
		p.Address.City,
		p.Address.PostalCode,
		p.Address.StreetName,
		p.Address.HouseNumber,
		p.Address.Neighborhood,
		firstOr(p.FloorArea),
		firstOr(p.PlotArea),
		firstOr(p.Bedrooms),
		strconv.FormatFloat(p.Price.First(s.offering), 'f', -1, 64),
		p.AgencyName,
		publishDate,
		p.RelativeURL,
	}
	return s.writeRow("listing", row)
}

// SaveImageRef дописывает ссылку на изображение.
func (s *CsvHouseStore) SaveImageRef(ctx context.Context, houseID int64, photoID int64, url string) error {
	return s.writeRow("images", []string{
		strconv.FormatInt(houseID, 10),
		strconv.FormatInt(photoID, 10),
		url,
	})
}

func (s *CsvHouseStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for kind, sink := range s.sinks {
		sink.writer.Flush()
		if err := sink.writer.Error(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("csv store: flush %s on close: %w", kind, err)
		}
		if err := sink.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("csv store: close %s: %w", kind, err)
		}
	}
	s.sinks = make(map[string]*csvSink)
	return firstErr
}
