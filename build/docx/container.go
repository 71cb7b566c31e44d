package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"bix/misc"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>
`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>
</Relationships>
`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings" Target="settings.xml"/>
</Relationships>
`

const appXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
<Application>bix</Application>
</Properties>
`

// Save finalizes the document and writes the DOCX container to path. The
// optional fix pass rewrites the archive dropping data descriptors, some
// readers choke on them.
func (b *Backend) Save(path string) error {
	if err := b.finalize(); err != nil {
		return err
	}
	if b.log != nil {
		b.log.Debug("Writing DOCX", zap.String("output", path), zap.Int("pages", b.pages))
	}

	target := path
	if b.fixZip {
		target = path + ".tmp"
	}

	if err := b.writeContainer(target); err != nil {
		return err
	}
	if !b.fixZip {
		return nil
	}
	if err := fixOutputZip(target, path); err != nil {
		return err
	}
	return os.Remove(target)
}

func (b *Backend) writeContainer(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	if err := writeDataToZip(zw, "[Content_Types].xml", []byte(contentTypesXML)); err != nil {
		return fmt.Errorf("unable to write content types: %w", err)
	}
	if err := writeDataToZip(zw, "_rels/.rels", []byte(rootRelsXML)); err != nil {
		return fmt.Errorf("unable to write package relationships: %w", err)
	}
	if err := writeXMLToZip(zw, "word/document.xml", b.doc); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	if err := writeDataToZip(zw, "word/_rels/document.xml.rels", []byte(documentRelsXML)); err != nil {
		return fmt.Errorf("unable to write document relationships: %w", err)
	}
	if err := writeXMLToZip(zw, "word/settings.xml", settingsDoc()); err != nil {
		return fmt.Errorf("unable to write settings: %w", err)
	}
	if err := writeXMLToZip(zw, "docProps/core.xml", coreProps()); err != nil {
		return fmt.Errorf("unable to write core properties: %w", err)
	}
	if err := writeDataToZip(zw, "docProps/app.xml", []byte(appXML)); err != nil {
		return fmt.Errorf("unable to write application properties: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to finalize container: %w", err)
	}
	return f.Close()
}

// settingsDoc builds word/settings.xml with a persistent document id, Word
// generates one on save otherwise.
func settingsDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	settings := doc.CreateElement("w:settings")
	settings.CreateAttr("xmlns:w", nsMain)
	settings.CreateAttr("xmlns:w15", "http://schemas.microsoft.com/office/word/2012/wordml")

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	docID := settings.CreateElement("w15:docId")
	docID.CreateAttr("w15:val", "{" + strings.ToUpper(id.String()) + "}")
	return doc
}

func coreProps() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	props := doc.CreateElement("cp:coreProperties")
	props.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	props.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	props.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	props.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	props.CreateElement("dc:creator").SetText(misc.GetAppName())

	created := props.CreateElement("dcterms:created")
	created.CreateAttr("xsi:type", "dcterms:W3CDTF")
	created.SetText(time.Now().UTC().Format(time.RFC3339))
	return doc
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// fixOutputZip rewrites the container entry by entry with data descriptor
// flags unset.
func fixOutputZip(from, to string) error {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}
