package bing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dictbatch/internal/dict"
)

// Sidebar section titles on the clientsearch page.
const (
	sideTitleCollocations = "搭配"
	sideTitleSynonyms     = "同义词"
	sideTitleAntonyms     = "反义词"
)

// ParseEntry extracts a structured entry from a clientsearch HTML page.
// A page without the dictionary content container yields
// dict.ErrNotFound. Selector classes track the desktop client markup and
// will break with a site redesign.
func ParseEntry(html []byte) (*dict.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	content := doc.Find("div.client_search_content").First()
	if content.Length() == 0 {
		return nil, dict.ErrNotFound
	}

	entry := &dict.Entry{}
	left := content.Find("div.client_search_leftside_area").First()
	right := content.Find("div.client_search_rightside_area").First()

	entry.Headword = text(left.Find("div.client_def_hd_hd").First())
	entry.Pronunciations = parsePronunciations(left)

	if nl := content.Find("div#clientnlid").First(); nl.Length() > 0 {
		entry.Groups = parseSenseGroups(nl)
	}
	if cross := content.Find("div#clientcrossid").First(); cross.Length() > 0 {
		entry.CrossDefs = parseSimpleGroups(cross)
	}
	if homo := content.Find("div#clienthomoid").First(); homo.Length() > 0 {
		entry.HomoDefs = parseSimpleGroups(homo)
	}

	right.Find("div.client_side_bar").Each(func(_ int, bar *goquery.Selection) {
		groups := parseWordGroups(bar)
		switch text(bar.Find("div.client_side_title").First()) {
		case sideTitleCollocations:
			entry.Collocations = append(entry.Collocations, groups...)
		case sideTitleSynonyms:
			entry.Synonyms = append(entry.Synonyms, groups...)
		case sideTitleAntonyms:
			entry.Antonyms = append(entry.Antonyms, groups...)
		}
	})

	return entry, nil
}

// parsePronunciations reads the US/UK phonetic strings. The page renders
// them as "美: [...]" / "英: [...]"; the text after the colon is kept.
func parsePronunciations(left *goquery.Selection) map[string]string {
	lists := left.Find("div.client_def_hd_pn_list")
	if lists.Length() < 2 {
		return nil
	}
	prons := make(map[string]string, 2)
	if us := pronValue(lists.Eq(0)); us != "" {
		prons["US"] = us
	}
	if uk := pronValue(lists.Eq(1)); uk != "" {
		prons["UK"] = uk
	}
	if len(prons) == 0 {
		return nil
	}
	return prons
}

func pronValue(list *goquery.Selection) string {
	raw := text(list.Find("div.client_def_hd_pn").First())
	_, after, found := strings.Cut(raw, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// parseSenseGroups walks the authoritative bilingual tab: one segment
// per part of speech, each with numbered senses and idiom bars.
func parseSenseGroups(tab *goquery.Selection) []dict.SenseGroup {
	var groups []dict.SenseGroup
	tab.Find("div.defeachseg").Each(func(_ int, seg *goquery.Selection) {
		group := dict.SenseGroup{
			PartOfSpeech: text(seg.Find("span.defpos").First()),
		}
		seg.Find("div.deflistseg").First().Find("div.deflistitem").Each(func(_ int, item *goquery.Selection) {
			group.Senses = append(group.Senses, dict.Sense{
				Number:   text(item.Find("div.defnum").First()),
				Label:    text(item.Find("div.defitemtitle").First()),
				Chinese:  text(item.Find("span.itemname").First()),
				English:  text(item.Find("span.itmeval").First()),
				Examples: parseExamples(item),
			})
		})
		seg.Find("div.idombar").Each(func(_ int, idom *goquery.Selection) {
			group.Idioms = append(group.Idioms, dict.Idiom{
				Title:    text(idom.Find("div.defitemtitle").First()),
				Chinese:  text(idom.Find("span.itemname").First()),
				English:  text(idom.Find("span.itmeval").First()),
				Examples: parseExamples(idom),
			})
		})
		groups = append(groups, group)
	})
	return groups
}

func parseExamples(scope *goquery.Selection) []dict.Example {
	var examples []dict.Example
	scope.Find("div.examlistitem").Each(func(_ int, ex *goquery.Selection) {
		en := ex.Find("div.examitmeval").First()
		cn := ex.Find("div.examitemname").First()
		if en.Length() == 0 || cn.Length() == 0 {
			return
		}
		examples = append(examples, dict.Example{
			English: text(en),
			Chinese: text(cn),
		})
	})
	return examples
}

// parseSimpleGroups walks the EC/EE tabs: a flat definition list per
// part of speech.
func parseSimpleGroups(tab *goquery.Selection) []dict.SimpleGroup {
	var groups []dict.SimpleGroup
	tab.Find("div.client_def_bar").Each(func(_ int, bar *goquery.Selection) {
		var defs []string
		bar.Find("div.client_def_list_item").Each(func(_ int, item *goquery.Selection) {
			if content := item.Find("div.client_def_list_word_content").First(); content.Length() > 0 {
				defs = append(defs, text(content))
			}
		})
		if len(defs) == 0 {
			return
		}
		groups = append(groups, dict.SimpleGroup{
			PartOfSpeech: text(bar.Find("span.client_def_title").First()),
			Definitions:  defs,
		})
	})
	return groups
}

func parseWordGroups(bar *goquery.Selection) []dict.WordGroup {
	var groups []dict.WordGroup
	bar.Find("div.client_siderbar_content").Each(func(_ int, content *goquery.Selection) {
		var items []string
		content.Find("a.client_siderbar_list_word").Each(func(_ int, item *goquery.Selection) {
			items = append(items, text(item))
		})
		groups = append(groups, dict.WordGroup{
			Label: text(content.Find("span.client_siderbar_list_title").First()),
			Items: items,
		})
	})
	return groups
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
