// Package buffer holds the single text document the reader displays.
package buffer

import (
	"strings"
	"sync"
)

// Placeholder is the text shown before anything is imported or typed.
const Placeholder = "Welcome to lexi!\n\n" +
	"Open a text, PDF, Word or image file to see its text here,\n" +
	"or paste your own. Adjust the font, size and spacing until it reads comfortably,\n" +
	"then press play to have it read aloud."

// Buffer is the mutable document text. It is safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	text string
}

// New creates a Buffer holding the placeholder text.
func New() *Buffer {
	return &Buffer{text: Placeholder}
}

// Text returns a snapshot of the current contents.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Replace swaps in new contents wholesale.
func (b *Buffer) Replace(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.Replace("")
}

// Stats summarizes the buffer for status display.
type Stats struct {
	Words     int
	Sentences int
	Runes     int
}

// Stats counts words, sentences and runes in the current contents.
func (b *Buffer) Stats() Stats {
	text := b.Text()
	words := ParseWords(text)
	sentences := 0
	if len(words) > 0 {
		sentences = len(FindSentenceStarts(words))
	}
	return Stats{
		Words:     len(words),
		Sentences: sentences,
		Runes:     len([]rune(text)),
	}
}

// ParseWords splits text into whitespace-separated words.
func ParseWords(text string) []string {
	return strings.Fields(text)
}

// FindSentenceStarts returns indices of words that start sentences.
func FindSentenceStarts(words []string) []int {
	starts := []int{0}
	for i, word := range words {
		if len(word) > 0 {
			last := word[len(word)-1]
			if last == '.' || last == '!' || last == '?' {
				if i+1 < len(words) {
					starts = append(starts, i+1)
				}
			}
		}
	}
	return starts
}
