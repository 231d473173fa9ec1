package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

var storyExtension = regexp.MustCompile(`\.z[12345678]$`)

func main() {
	outputDir := flag.String("out", "stories", "directory to save downloaded story files into")
	versions := flag.String("versions", "12345678", "story-file version digits to fetch, e.g. \"358\"")
	politeDelay := flag.Duration("delay", 100*time.Millisecond, "pause between downloads, to avoid hammering the archive")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Printf("failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	c := &http.Client{Timeout: 30 * time.Second}
	games, err := fetchIndex(c, *versions)
	if err != nil {
		fmt.Printf("failed to fetch index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("found %d story files matching version filter %q\n", len(games), *versions)

	downloaded, skipped, failed := 0, 0, 0
	for i, game := range games {
		destPath := filepath.Join(*outputDir, game.name)

		if _, err := os.Stat(destPath); err == nil {
			fmt.Printf("[%d/%d] skipping %s (already on disk)\n", i+1, len(games), game.name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] fetching %s... ", i+1, len(games), game.name)
		n, err := downloadTo(c, game.url, destPath)
		if err != nil {
			fmt.Printf("failed: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("ok (%d bytes)\n", n)
		downloaded++

		time.Sleep(*politeDelay)
	}

	fmt.Printf("\ndone: downloaded %d, skipped %d, failed %d\n", downloaded, skipped, failed)
	if err := writeManifest(*outputDir, games); err != nil {
		fmt.Printf("warning: failed to write manifest: %v\n", err)
	}
}

type storyLink struct {
	name string
	url  string
}

// fetchIndex scrapes the ifarchive zcode directory listing and keeps
// only the links whose extension digit appears in wantVersions.
func fetchIndex(c *http.Client, wantVersions string) ([]storyLink, error) {
	res, err := c.Get(indexURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("bad status code: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing index HTML: %w", err)
	}

	var games []storyLink
	doc.Find("dl dt").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists || !storyExtension.MatchString(href) {
			return
		}
		version := href[len(href)-1]
		if !strings.ContainsRune(wantVersions, rune(version)) {
			return
		}
		games = append(games, storyLink{
			name: filepath.Base(href),
			url:  "https://www.ifarchive.org" + href,
		})
	})
	return games, nil
}

func downloadTo(c *http.Client, url, destPath string) (int, error) {
	resp, err := c.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return 0, err
	}
	return len(data), nil
}

func writeManifest(outputDir string, games []storyLink) error {
	var manifest strings.Builder
	for _, game := range games {
		manifest.WriteString(game.name + "\n")
	}
	manifestPath := filepath.Join(outputDir, "manifest.txt")
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote manifest to %s\n", manifestPath)
	return nil
}
