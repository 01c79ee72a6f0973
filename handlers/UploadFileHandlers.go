package handlers

import (
	"backend/repository"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

const imageDir = "/var/www/dataworkmate/"

const uploadPreset = "workmate_preset"

// allowed upload folders and their subdirectories under imageDir
var validFolders = map[string]bool{
	"proof":    true,
	"profile":  true,
	"projects": true,
	"misc":     true,
}

// ServeFile godoc
// @Summary      Serve file
// @Description  Serve a file by name from query param ?file=filename
// @Tags         upload
// @Produce      application/octet-stream
// @Param        file  query     string  true  "File name (path relative to storage)"
// @Success      200   {file}   file    "File content"
// @Failure      400   {object}  object
// @Failure      403   {object}  object
// @Failure      404   {object}  object
// @Failure      500   {object}  object
// @Router       /api/get-file [get]
func ServeFile(c *gin.Context) {
	fileName := c.Query("file")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}

	// Secure the file path to prevent directory traversal attacks
	cleanFileName := filepath.Clean(fileName)
	if cleanFileName != fileName || strings.Contains(cleanFileName, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file path"})
		return
	}

	absoluteImageDir, err := filepath.Abs(imageDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	filePath := filepath.Join(absoluteImageDir, cleanFileName)
	if !strings.HasPrefix(filePath, absoluteImageDir+string(os.PathSeparator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	defer file.Close()

	// Read a small portion of the file to detect its MIME type
	buffer := make([]byte, 512)
	_, err = file.Read(buffer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	contentType := http.DetectContentType(buffer)
	c.Writer.Header().Set("Content-Type", contentType)

	c.File(filePath)
}

// UploadFile godoc
// @Summary      Upload file
// @Description  Upload a file (multipart form: file, upload_preset, folder). Returns secure_url and public_id. Image uploads also get a 200px-wide thumbnail.
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "File to upload"
// @Param        upload_preset  formData  string  true   "Upload preset"
// @Param        folder         formData  string  false  "Target folder"
// @Success      200   {object}  object  "secure_url, public_id, folder"
// @Failure      400   {object}  object
// @Failure      500   {object}  object
// @Router       /api/upload [post]
func UploadFile(c *gin.Context) {
	file, handler, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Error retrieving the file",
		})
		return
	}
	defer file.Close()

	if preset := c.PostForm("upload_preset"); preset != uploadPreset {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown upload preset"})
		return
	}

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "misc"
	}
	if !validFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid folder: %s", folder)})
		return
	}

	filename := filepath.Base(handler.Filename)
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file name",
		})
		return
	}

	targetDir := filepath.Join(imageDir, folder)
	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Unable to create directory",
			})
			return
		}
	}

	publicID := repository.GenerateAssetPublicID(folder, filename)
	uniqueName := filepath.Base(publicID) + filepath.Ext(filename)
	dstPath := filepath.Join(targetDir, uniqueName)

	if err := c.SaveUploadedFile(handler, dstPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Unable to save the file",
			"details": err.Error(),
		})
		return
	}

	relPath := filepath.Join(folder, uniqueName)
	secureURL := buildFileURL(relPath)

	response := gin.H{
		"message":    "File uploaded successfully",
		"secure_url": secureURL,
		"public_id":  publicID,
		"folder":     folder,
		"file_size":  handler.Size,
		"file_type":  handler.Header.Get("Content-Type"),
	}

	// Images get a thumbnail next to the original; failures are non-fatal
	if thumbRel, err := generateThumbnail(dstPath, targetDir, uniqueName); err == nil && thumbRel != "" {
		response["thumbnail_url"] = buildFileURL(filepath.Join(folder, thumbRel))
	}

	c.JSON(http.StatusOK, response)
}

// generateThumbnail writes a 200px-wide JPEG thumbnail for image files and
// returns its file name. Non-image files return empty without error.
func generateThumbnail(srcPath, targetDir, uniqueName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(uniqueName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
	default:
		return "", nil
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", err
	}

	thumb := imaging.Resize(img, 200, 0, imaging.Lanczos)
	thumbName := "thumb_" + strings.TrimSuffix(uniqueName, ext) + ".jpg"
	if err := imaging.Save(thumb, filepath.Join(targetDir, thumbName), imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return thumbName, nil
}

func buildFileURL(relPath string) string {
	base := os.Getenv("FILE_BASE_URL")
	if base == "" {
		base = "/api/get-file?file="
	}
	return base + relPath
}

// DeleteUploadedFile godoc
// @Summary      Delete an uploaded file
// @Description  Remove an uploaded file and its thumbnail by public_id
// @Tags         upload
// @Produce      json
// @Param        public_id  query  string  true  "Public ID returned at upload"
// @Success      200   {object}  object
// @Failure      400   {object}  object
// @Failure      404   {object}  object
// @Router       /api/delete-file [delete]
func DeleteUploadedFile(c *gin.Context) {
	publicID := c.Query("public_id")
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "public_id parameter is required"})
		return
	}

	cleanID := filepath.Clean(publicID)
	if cleanID != publicID || strings.Contains(cleanID, "..") || filepath.IsAbs(cleanID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public_id"})
		return
	}

	folder := filepath.Dir(cleanID)
	if !validFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder in public_id"})
		return
	}

	// public_id has no extension, so match any file starting with the base name
	pattern := filepath.Join(imageDir, cleanID) + ".*"
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	for _, match := range matches {
		os.Remove(match)
		base := filepath.Base(match)
		thumb := filepath.Join(filepath.Dir(match), "thumb_"+strings.TrimSuffix(base, filepath.Ext(base))+".jpg")
		os.Remove(thumb)
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully", "public_id": publicID})
}
