package render

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slideforge/slideforge/internal/domain"
)

// The PPTX is assembled directly as an OOXML package: a zip of XML parts
// plus the icon media. Geometry is in EMUs on a 16:9 canvas.
const (
	slideCX = 12192000
	slideCY = 6858000

	iconCX = 914400 // 1 inch
	iconCY = 914400
)

// writePPTX writes the deck as a PowerPoint package with one slide per deck
// slide and the slide's icon, when present, in the top-right corner.
func writePPTX(deck *domain.Deck, iconsDir, pptxPath string) error {
	if err := os.MkdirAll(filepath.Dir(pptxPath), 0o755); err != nil {
		return domain.IOError("create pptx directory", err)
	}
	f, err := os.Create(pptxPath)
	if err != nil {
		return domain.IOError(fmt.Sprintf("create pptx %s", pptxPath), err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	slides := deck.Slides()

	if err := writePackageParts(zw, slides, iconsDir); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return domain.IOError("finalize pptx package", err)
	}
	return f.Close()
}

// pkgPart is one named XML part of the package.
type pkgPart struct {
	name string
	body string
}

func writePackageParts(zw *zip.Writer, slides []domain.Slide, iconsDir string) error {
	icons := make(map[int][]byte, len(slides))
	for _, slide := range slides {
		data, err := os.ReadFile(filepath.Join(iconsDir, domain.IconFileName(slide.Index)))
		if err == nil {
			icons[slide.Index] = data
		}
	}
	notes := make(map[int]string, len(slides))
	for i, slide := range slides {
		if text := strings.TrimSpace(slide.Spec.SpeakerNotes); text != "" {
			notes[i+1] = text
		}
	}

	parts := []pkgPart{
		{"[Content_Types].xml", contentTypesXML(len(slides), notes)},
		{"_rels/.rels", rootRelsXML},
		{"ppt/presentation.xml", presentationXML(len(slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(slides))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/notesMasters/notesMaster1.xml", notesMasterXML},
		{"ppt/notesMasters/_rels/notesMaster1.xml.rels", notesMasterRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for i, slide := range slides {
		n := i + 1
		_, hasIcon := icons[slide.Index]
		text, hasNotes := notes[n]
		parts = append(parts,
			pkgPart{fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(slide, hasIcon)},
			pkgPart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsXML(n, hasIcon, hasNotes)},
		)
		if hasNotes {
			parts = append(parts,
				pkgPart{fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), notesSlideXML(text)},
				pkgPart{fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), notesSlideRelsXML(n)},
			)
		}
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return domain.IOError(fmt.Sprintf("create pptx part %s", part.name), err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return domain.IOError(fmt.Sprintf("write pptx part %s", part.name), err)
		}
	}

	for i, slide := range slides {
		data, ok := icons[slide.Index]
		if !ok {
			continue
		}
		name := fmt.Sprintf("ppt/media/image%d.png", i+1)
		w, err := zw.Create(name)
		if err != nil {
			return domain.IOError(fmt.Sprintf("create pptx part %s", name), err)
		}
		if _, err := w.Write(data); err != nil {
			return domain.IOError(fmt.Sprintf("write pptx part %s", name), err)
		}
	}
	return nil
}

func contentTypesXML(slideCount int, notes map[int]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/notesMasters/notesMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"/>
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for n := 1; n <= slideCount; n++ {
		fmt.Fprintf(&b, `
<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		if _, ok := notes[n]; ok {
			fmt.Fprintf(&b, `
<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, n)
		}
	}
	b.WriteString("\n</Types>")
	return b.String()
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`

func presentationXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	fmt.Fprintf(&b, `
<p:notesMasterIdLst><p:notesMasterId r:id="rId%d"/></p:notesMasterIdLst>
<p:sldIdLst>`, slideCount+2)
	for n := 1; n <= slideCount; n++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, 1+n)
	}
	fmt.Fprintf(&b, `</p:sldIdLst>
<p:sldSz cx="%d" cy="%d"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>`, slideCX, slideCY)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for n := 1; n <= slideCount; n++ {
		fmt.Fprintf(&b, `
<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 1+n, n)
	}
	fmt.Fprintf(&b, `
<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="notesMasters/notesMaster1.xml"/>`, slideCount+2)
	b.WriteString("\n</Relationships>")
	return b.String()
}

const slideMasterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
</p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>`

const slideMasterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>
</Relationships>`

const slideLayoutXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank">
<p:cSld name="Blank"><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
</p:spTree></p:cSld>
<p:clrMapOvr><a:overrideClrMapping bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/></p:clrMapOvr>
</p:sldLayout>`

const slideLayoutRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>`

const notesMasterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notesMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
</p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
</p:notesMaster>`

const notesMasterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>
</Relationships>`

// notesSlideXML renders one speaker-notes part. The text lands in the body
// placeholder, which is where presentation tools look for notes.
func notesSlideXML(notes string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
<p:sp>
<p:nvSpPr><p:cNvPr id="2" name="Notes"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>
<p:spPr/>
<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody>
</p:sp>
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:notes>`, escapeXML(notes))
}

func notesSlideRelsXML(n int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster" Target="../notesMasters/notesMaster1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="../slides/slide%d.xml"/>
</Relationships>`, n)
}

const themeXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office">
<a:themeElements>
<a:clrScheme name="Office">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="1F3864"/></a:dk2>
<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>
<a:accent1><a:srgbClr val="4472C4"/></a:accent1>
<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>
<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>
<a:accent4><a:srgbClr val="FFC000"/></a:accent4>
<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>
<a:accent6><a:srgbClr val="70AD47"/></a:accent6>
<a:hlink><a:srgbClr val="0563C1"/></a:hlink>
<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Office">
<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="Office">
<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>
<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>
<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>
<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>`

// slideXML renders one slide part. The title slide centers its text; content
// slides get a title bar and a bulleted body.
func slideXML(slide domain.Slide, hasIcon bool) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	if slide.IsTitle {
		subtitle := ""
		if len(slide.Spec.Bullets) > 0 {
			subtitle = slide.Spec.Bullets[0]
		}
		b.WriteString(textBox(2, "Title", 914400, 2286000, slideCX-1828800, 1371600,
			[]run{{text: slide.Spec.Title, size: 4400, bold: true, center: true}}))
		b.WriteString(textBox(3, "Subtitle", 914400, 3886200, slideCX-1828800, 914400,
			[]run{{text: subtitle, size: 2400, center: true}}))
	} else {
		b.WriteString(textBox(2, "Title", 685800, 457200, slideCX-2514600, 1143000,
			[]run{{text: slide.Spec.Title, size: 3600, bold: true}}))
		runs := make([]run, 0, len(slide.Spec.Bullets))
		for _, bullet := range slide.Spec.Bullets {
			runs = append(runs, run{text: bullet, size: 2400, bullet: true})
		}
		if len(runs) > 0 {
			b.WriteString(textBox(3, "Body", 914400, 1828800, slideCX-2286000, slideCY-2743200, runs))
		}
	}

	if hasIcon {
		fmt.Fprintf(&b, `
<p:pic>
<p:nvPicPr><p:cNvPr id="8" name="Icon"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>
<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>
<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>
</p:pic>`, slideCX-iconCX-457200, 457200, iconCX, iconCY)
	}

	b.WriteString(`
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sld>`)
	return b.String()
}

type run struct {
	text   string
	size   int // hundredths of a point
	bold   bool
	bullet bool
	center bool
}

// textBox emits one shape with a paragraph per run.
func textBox(id int, name string, x, y, cx, cy int, runs []run) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
<p:sp>
<p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>
<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`, id, name, x, y, cx, cy)
	for _, r := range runs {
		b.WriteString(`<a:p><a:pPr`)
		if r.center {
			b.WriteString(` algn="ctr"`)
		}
		b.WriteString(`>`)
		if r.bullet {
			b.WriteString(`<a:buChar char="•"/>`)
		} else {
			b.WriteString(`<a:buNone/>`)
		}
		b.WriteString(`</a:pPr>`)
		fmt.Fprintf(&b, `<a:r><a:rPr lang="en-US" sz="%d"`, r.size)
		if r.bold {
			b.WriteString(` b="1"`)
		}
		fmt.Fprintf(&b, `/><a:t>%s</a:t></a:r></a:p>`, escapeXML(r.text))
	}
	b.WriteString(`</p:txBody>
</p:sp>`)
	return b.String()
}

func slideRelsXML(n int, hasIcon, hasNotes bool) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	if hasIcon {
		fmt.Fprintf(&b, `
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.png"/>`, n)
	}
	if hasNotes {
		fmt.Fprintf(&b, `
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide%d.xml"/>`, n)
	}
	b.WriteString("\n</Relationships>")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
