package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gocards/internal/content"
)

// ErrInvalidEpub marks archives without a readable package document or any
// XHTML content.
var ErrInvalidEpub = errors.New("invalid epub")

// Epub reads local EPUB books. The title and author come from the Dublin
// Core metadata; the body is every spine document in reading order.
type Epub struct{}

func (Epub) Name() string { return "EpubExtractor" }

func (Epub) CanHandle(loc content.Locator) bool {
	return !loc.IsRemote() && loc.Ext() == ".epub"
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Metadata struct {
		Title       []string `xml:"title"`
		Creator     []string `xml:"creator"`
		Date        []string `xml:"date"`
		Description []string `xml:"description"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

const maxEpubEntryBytes = 32 << 20

func (e Epub) Extract(loc content.Locator, _ *goquery.Document, raw []byte) content.Result {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return content.Failed(loc, e.Name(), fmt.Errorf("%w: %v", ErrInvalidEpub, err))
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	res := content.Result{Locator: loc, Domain: loc.Domain(), Extractor: e.Name()}
	docs, pkg, err := epubDocuments(files)
	if err != nil {
		return content.Failed(loc, e.Name(), err)
	}
	if pkg != nil {
		res.Title = collapse(firstNonEmpty(pkg.Metadata.Title...))
		var authors []string
		for _, c := range pkg.Metadata.Creator {
			if c = collapse(c); c != "" {
				authors = append(authors, c)
			}
		}
		res.Author = strings.Join(authors, ", ")
		res.Published = collapse(firstNonEmpty(pkg.Metadata.Date...))
		res.Description = collapse(firstNonEmpty(pkg.Metadata.Description...))
	}

	rules := newBlockRules(1, siteBlockTags...)
	for _, name := range docs {
		data, err := readZipEntry(files[name])
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		doc, err := ParseHTML(data)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		blocks := collectBlocks(doc.Find("body"), rules)
		if len(blocks) == 0 && len(doc.Nodes) > 0 {
			blocks = content.BlocksFromText(ProseText(doc.Nodes[0]))
		}
		res.Blocks = append(res.Blocks, blocks...)
	}
	if res.Title == "" {
		base := filepath.Base(loc.String())
		res.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return res
}

// epubDocuments returns the archive paths of the content documents in
// reading order. Without a usable spine every XHTML entry is used in name
// order.
func epubDocuments(files map[string]*zip.File) ([]string, *epubPackage, error) {
	pkg, opfPath := readEpubPackage(files)
	var docs []string
	if pkg != nil {
		dir := path.Dir(opfPath)
		hrefs := make(map[string]string, len(pkg.Manifest))
		for _, it := range pkg.Manifest {
			hrefs[it.ID] = it.Href
		}
		for _, ref := range pkg.Spine {
			href, ok := hrefs[ref.IDRef]
			if !ok {
				continue
			}
			if unescaped, err := url.PathUnescape(href); err == nil {
				href = unescaped
			}
			name := path.Join(dir, href)
			if _, ok := files[name]; ok {
				docs = append(docs, name)
			}
		}
	}
	if len(docs) == 0 {
		for name := range files {
			switch strings.ToLower(path.Ext(name)) {
			case ".xhtml", ".html", ".htm":
				docs = append(docs, name)
			}
		}
		sort.Strings(docs)
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("%w: no content documents", ErrInvalidEpub)
	}
	return docs, pkg, nil
}

func readEpubPackage(files map[string]*zip.File) (*epubPackage, string) {
	data, err := readZipEntry(files["META-INF/container.xml"])
	if err != nil {
		return nil, ""
	}
	var c epubContainer
	if err := xml.Unmarshal(data, &c); err != nil || len(c.Rootfiles) == 0 {
		return nil, ""
	}
	opfPath := c.Rootfiles[0].FullPath
	data, err = readZipEntry(files[opfPath])
	if err != nil {
		return nil, ""
	}
	var pkg epubPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, ""
	}
	return &pkg, opfPath
}

func readZipEntry(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, errors.New("missing entry")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEpubEntryBytes))
}
