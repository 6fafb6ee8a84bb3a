package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Blickwinkle262/DutchRentScope/internal"
)

func main() {
	mode := flag.String("mode", "detail", "crawl mode: listing, detail or update")
	areas := flag.String("search_areas", "amsterdam", "comma separated city list, e.g. amsterdam,utrecht")
	offering := flag.String("offering", "rent", "offering type: rent or buy")
	minPrice := flag.Float64("min_price", 0, "minimum price filter, 0 disables")
	maxPrice := flag.Float64("max_price", 0, "maximum price filter, 0 disables")
	freeText := flag.String("free_text", "", "free text search query")
	saveOption := flag.String("save_option", "csv", "storage backend: csv or db")
	downloadImg := flag.Bool("download_img", false, "store image references for found listings")
	imageSize := flag.String("image_size", "medium", "image size: small, medium or large")
	flag.Parse()

	opts := internal.RunOptions{
		Mode:           *mode,
		SearchAreas:    strings.Split(*areas, ","),
		Offering:       *offering,
		MinPrice:       *minPrice,
		MaxPrice:       *maxPrice,
		FreeText:       *freeText,
		SaveOption:     *saveOption,
		DownloadImages: *downloadImg,
		ImageSize:      *imageSize,
	}

	application, err := internal.NewApp(opts)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Close()
		log.Fatalf("Application run failed: %v", err)
	}
}
