package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nakanaka07/kueccha/internal/adapters/search"
	"github.com/nakanaka07/kueccha/internal/adapters/sources/csvfile"
	"github.com/nakanaka07/kueccha/internal/infrastructure/clients/typesense"
	"github.com/nakanaka07/kueccha/pkg/config"
)

// Writes sample CSV exports for local development. The files match the
// format the csvfile source reads, so pointing CSV_BASE_URL at a static
// server over the output directory gives a working dataset without
// Sheets credentials. With TYPESENSE_URL set the rows are also indexed.
func main() {
	outDir := flag.String("out", "data", "directory to write CSV files into")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	header := []string{"key", "name", "area", "category", "genre", "lat", "lng", "address", "phone", "description", "information"}

	fixtures := map[string][][]string{
		"restaurants.csv": {
			{"sado-r-001", "長三郎鮨", "RYOTSU_AIKAWA", "restaurant", "寿司", "38.0792", "138.4371", "新潟県佐渡市両津夷新連49-1", "0259-27-5938", "両津港近くの老舗寿司店", ""},
			{"sado-r-002", "へんじんもっこ 大野工場", "KANAI_SAWADA_NIIGAWA", "restaurant", "惣菜・デリ", "38.0246", "138.3751", "新潟県佐渡市新穂大野1184-1", "0259-22-2989", "手作りソーセージとサラミ", ""},
			{"sado-r-003", "しまふうみ", "AKADOMARI_HAMOCHI_OGI", "restaurant", "ベーカリーカフェ", "37.8135", "138.2577", "新潟県佐渡市大小105-4", "0259-55-4545", "海を望むテラス席あり", ""},
			{"sado-r-004", "スナック 潮風", "SNACK", "restaurant", "スナック", "38.0189", "138.3672", "新潟県佐渡市千種113", "", "", ""},
			{"sado-r-005", "佐渡天然ブリカツ丼 さんぽう", "RECOMMEND", "restaurant", "丼もの", "38.0781", "138.4402", "新潟県佐渡市両津湊198", "0259-23-2714", "ご当地丼の認定店", "おすすめ"},
		},
		"parkings.csv": {
			{"sado-p-001", "両津港佐渡汽船駐車場", "", "parking", "", "38.0795", "138.4382", "新潟県佐渡市両津湊353", "", "フェリーターミナル隣接", ""},
			{"sado-p-002", "相川北沢浮遊選鉱場前駐車場", "", "parking", "", "38.0402", "138.2405", "新潟県佐渡市相川北沢町3-2", "", "", ""},
			{"sado-p-003", "小木みなと公園駐車場", "", "parking", "", "37.8122", "138.2814", "新潟県佐渡市小木町1935-26", "", "", ""},
		},
		"toilets.csv": {
			{"sado-t-001", "両津港ターミナル公衆トイレ", "", "toilet", "", "38.0796", "138.4379", "新潟県佐渡市両津湊353", "", "24時間利用可", ""},
			{"sado-t-002", "真野公園公衆トイレ", "", "toilet", "", "37.9934", "138.3443", "新潟県佐渡市真野655", "", "", ""},
		},
	}

	for file, rows := range fixtures {
		if err := writeCSV(filepath.Join(*outDir, file), header, rows); err != nil {
			log.Fatalf("Failed to write %s: %v", file, err)
		}
		log.Printf("Wrote %s (%d rows)", file, len(rows))
	}

	if os.Getenv("TYPESENSE_URL") == "" {
		log.Println("TYPESENSE_URL not set, skipping search indexing")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to create Typesense client: %v", err)
	}
	searchRepo := search.NewTypesenseAdapter(tsClient)

	ctx := context.Background()
	if err := searchRepo.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to init search schema: %v", err)
	}

	indexed := 0
	for file := range fixtures {
		f, err := os.Open(filepath.Join(*outDir, file))
		if err != nil {
			log.Fatalf("Failed to reopen %s: %v", file, err)
		}
		pois, err := csvfile.ParseFile(file, f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to parse %s: %v", file, err)
		}
		if err := searchRepo.IndexBatch(ctx, pois); err != nil {
			log.Printf("Failed to index %s: %v", file, err)
			continue
		}
		indexed += len(pois)
	}

	log.Printf("Seeding completed, %d POIs indexed", indexed)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
