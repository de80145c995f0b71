package prompt

// ImageURLLimit is the defensive bound on a single image URL: URLs at or
// over this length are dropped. Data-URL blobs smuggled into a snapshot
// would otherwise blow up every cache write.
const ImageURLLimit = 5000

// Sanitize normalizes a snapshot fetched from the remote or imported from a
// file: nil tag/image slices become empty ones, the legacy single-image field
// is folded into Images, oversized image URLs are dropped and the collapsed
// state of restricted and default-collapsed sections is forced back to
// collapsed regardless of what was stored.
func Sanitize(s *Snapshot) {
	if s.Sections == nil {
		s.Sections = []Section{}
	}
	if s.CommonTags == nil {
		s.CommonTags = []string{}
	}
	s.CommonTags = DedupeTags(s.CommonTags)
	for si := range s.Sections {
		sec := &s.Sections[si]
		if sec.IsRestricted || sec.DefaultCollapsed {
			sec.IsCollapsed = true
		}
		if sec.Prompts == nil {
			sec.Prompts = []Prompt{}
		}
		for pi := range sec.Prompts {
			sanitizePrompt(&sec.Prompts[pi])
		}
	}
}

func sanitizePrompt(p *Prompt) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Image != "" && len(p.Images) == 0 {
		p.Images = []string{p.Image}
	}
	p.Image = ""
	images := p.Images[:0]
	for _, img := range p.Images {
		if len(img) < ImageURLLimit {
			images = append(images, img)
		}
	}
	p.Images = images
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
