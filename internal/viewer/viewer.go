// Package viewer generates a static HTML page for browsing extracted crop
// colours.
package viewer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
)

// Record is one crop row of the augmented colour table.
type Record struct {
	CropName      string `json:"crop_name"`
	ImageURL      string `json:"image_url"`
	DominantColor string `json:"dominant_color"`
}

// ReadRecords loads crop records from an augmented CSV table, as written
// by the batch pipeline.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified table path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open colour table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read colour table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("colour table is empty: %s", path)
	}

	idx := map[string]int{}
	for i, name := range rows[0] {
		idx[name] = i
	}
	for _, required := range []string{"crop_name", "image_url", "dominant_color"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("colour table has no %q column", required)
		}
	}

	cell := func(row []string, name string) string {
		i := idx[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, Record{
			CropName:      cell(row, "crop_name"),
			ImageURL:      cell(row, "image_url"),
			DominantColor: cell(row, "dominant_color"),
		})
	}

	return records, nil
}

// Generate renders the viewer page for the given records and writes it to
// outputPath. The page is self-contained: record data is embedded as JSON
// and searching happens client-side.
func Generate(records []Record, outputPath string) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode crop data: %w", err)
	}

	var page struct {
		CropData template.JS
	}
	page.CropData = template.JS(data) // #nosec G203 - Data is JSON produced by encoding/json above

	f, err := os.Create(outputPath) // #nosec G304 - User-specified output path, intended to be written
	if err != nil {
		return fmt.Errorf("failed to create viewer page: %w", err)
	}

	if err := pageTemplate.Execute(f, page); err != nil {
		f.Close()
		return fmt.Errorf("failed to render viewer page: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close viewer page: %w", err)
	}
	return nil
}

var pageTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Crop Colour Viewer</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            margin: 0;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
        }
        h1 {
            text-align: center;
            color: #333;
            margin-bottom: 30px;
        }
        .search-box {
            width: 100%;
            padding: 12px;
            font-size: 16px;
            border: 2px solid #ddd;
            border-radius: 8px;
            margin-bottom: 20px;
            box-sizing: border-box;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fill, minmax(280px, 1fr));
            gap: 20px;
            margin-top: 20px;
        }
        .crop-card {
            background: white;
            border-radius: 12px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
            transition: transform 0.2s ease;
        }
        .crop-card:hover {
            transform: translateY(-2px);
            box-shadow: 0 4px 16px rgba(0,0,0,0.15);
        }
        .color-bar {
            height: 80px;
            display: flex;
            align-items: center;
            justify-content: center;
            color: white;
            font-weight: bold;
            text-shadow: 1px 1px 2px rgba(0,0,0,0.5);
            font-size: 18px;
        }
        .crop-info {
            padding: 16px;
        }
        .crop-header {
            display: flex;
            align-items: center;
            gap: 12px;
            margin-bottom: 12px;
        }
        .crop-image {
            width: 40px;
            height: 40px;
            object-fit: contain;
            border-radius: 6px;
            background: #f8f8f8;
            padding: 4px;
        }
        .crop-name {
            font-size: 18px;
            font-weight: 600;
            color: #333;
            flex: 1;
        }
        .color-code {
            font-family: 'Monaco', 'Menlo', monospace;
            font-size: 14px;
            color: #666;
            background: #f8f8f8;
            padding: 4px 8px;
            border-radius: 4px;
            display: inline-block;
            margin-bottom: 8px;
        }
        .image-link {
            font-size: 12px;
            color: #888;
            text-decoration: none;
            word-break: break-all;
            line-height: 1.4;
        }
        .image-link:hover {
            color: #0066cc;
        }
        .stats {
            text-align: center;
            margin-bottom: 20px;
            color: #666;
        }
        .no-results {
            text-align: center;
            color: #666;
            font-size: 18px;
            margin-top: 40px;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#127806; Crop Colour Viewer</h1>

        <input type="text" class="search-box" id="searchInput" placeholder="Search by crop name...">

        <div class="stats" id="stats"></div>

        <div class="grid" id="cropGrid"></div>

        <div class="no-results" id="noResults" style="display: none;">
            No matching crops.
        </div>
    </div>

    <script>
        // Embedded data
        const cropData = {{.CropData}};

        // Pick a readable text colour for a background colour.
        function getTextColor(hexColor) {
            if (!hexColor) return '#000000';
            const r = parseInt(hexColor.substr(1, 2), 16);
            const g = parseInt(hexColor.substr(3, 2), 16);
            const b = parseInt(hexColor.substr(5, 2), 16);
            const brightness = (r * 299 + g * 587 + b * 114) / 1000;
            return brightness > 128 ? '#000000' : '#ffffff';
        }

        function createCropCard(crop) {
            const colour = crop.dominant_color || '#cccccc';
            const label = crop.dominant_color || 'n/a';
            const textColor = getTextColor(colour);

            return ` + "`" + `
                <div class="crop-card">
                    <div class="color-bar" style="background-color: ${colour}; color: ${textColor};">
                        ${label}
                    </div>
                    <div class="crop-info">
                        <div class="crop-header">
                            <img src="${crop.image_url}" alt="${crop.crop_name}" class="crop-image" loading="lazy">
                            <div class="crop-name">${crop.crop_name}</div>
                        </div>
                        <div class="color-code">${label}</div>
                        <a href="${crop.image_url}" target="_blank" class="image-link">
                            ${crop.image_url}
                        </a>
                    </div>
                </div>
            ` + "`" + `;
        }

        function renderGrid(data) {
            const grid = document.getElementById('cropGrid');
            const noResults = document.getElementById('noResults');

            if (data.length === 0) {
                grid.style.display = 'none';
                noResults.style.display = 'block';
            } else {
                grid.style.display = 'grid';
                noResults.style.display = 'none';
                grid.innerHTML = data.map(createCropCard).join('');
            }

            document.getElementById('stats').textContent = data.length + ' crops';
        }

        function filterCrops(searchTerm) {
            const filtered = cropData.filter(crop =>
                crop.crop_name.toLowerCase().includes(searchTerm.toLowerCase())
            );
            renderGrid(filtered);
        }

        renderGrid(cropData);

        document.getElementById('searchInput').addEventListener('input', (e) => {
            filterCrops(e.target.value);
        });
    </script>
</body>
</html>
`))
