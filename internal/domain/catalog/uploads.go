package catalog

// Attachment is a file held in memory for a multipart upload.
type Attachment struct {
	Filename    string
	ContentType string // as declared by the uploader, may be empty
	Data        []byte
}

// Size returns the attachment size in bytes. A nil attachment is empty.
func (a *Attachment) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// SongUpload is the create-song form. Image is a URL, File the audio.
type SongUpload struct {
	Name     string
	ImageURL string
	Artist   string
	File     *Attachment
}

// AlbumUpload is the create-album form.
type AlbumUpload struct {
	Name     string
	ImageURL string
	Songs    []SongUpload
}

// SignupForm is the account creation form. Picture is optional.
type SignupForm struct {
	Name     string
	Gmail    string
	Password string
	Picture  *Attachment
}
