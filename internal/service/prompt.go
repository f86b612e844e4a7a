package service

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"lenta/parser/internal/domain"
)

// selectStore lists the available stores and reads a numeric choice. Bad
// input is reported and re-prompted, never fatal; only an exhausted input
// stream ends the prompt with an error.
func (s *Service) selectStore(stores []domain.Store) (domain.Store, error) {
	fmt.Println("Available stores:")
	for i, store := range stores {
		fmt.Printf("%d. %s — %s\n", i+1, store.ID, store.Name)
	}

	idx, err := s.promptIndex("Pick a store number: ", len(stores))
	if err != nil {
		return domain.Store{}, err
	}
	return stores[idx], nil
}

func (s *Service) selectCategory(categories []domain.Category) (domain.Category, error) {
	fmt.Println("Categories:")
	for i, cat := range categories {
		fmt.Printf("%d. %s — %s\n", i+1, cat.Code, cat.Name)
	}

	idx, err := s.promptIndex("Pick a category number: ", len(categories))
	if err != nil {
		return domain.Category{}, err
	}
	return categories[idx], nil
}

// promptIndex reads 1-based selections until one falls inside [1, n],
// returning it 0-based. The scanner is shared across prompts so buffered
// input is not lost between selections.
func (s *Service) promptIndex(prompt string, n int) (int, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.in)
	}
	scanner := s.scanner
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("input closed before a selection was made")
		}

		choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Println("Please enter a number.")
			continue
		}
		if choice < 1 || choice > n {
			fmt.Printf("Please pick a number between 1 and %d.\n", n)
			continue
		}
		return choice - 1, nil
	}
}
