package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/happyfish100/fdfs-batch/model"
)

// LoadItems reads a newline-delimited identifier list into ordered
// work items. Blank lines and #-comments are skipped; carriage
// returns are stripped. Duplicated identifiers are kept: each
// occurrence gets its own index and is processed independently.
func LoadItems(path string) ([]*model.WorkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open list file %s: %w", path, err)
	}
	defer f.Close()

	var items []*model.WorkItem
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, &model.WorkItem{Index: len(items), ID: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("list file %s contains no identifiers", path)
	}
	return items, nil
}
