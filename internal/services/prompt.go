// internal/services/prompt.go
package services

import (
	"fmt"
	"strings"

	"github.com/Corphon/SceneBoard/internal/models"
)

// DefaultCamera 未选择机位时的取值
const DefaultCamera = "Default"

// CameraShots 可选机位
var CameraShots = []string{
	DefaultCamera,
	"Close-up shot",
	"Medium shot",
	"Full shot",
	"Low angle shot",
	"High angle shot",
}

// CharacterPromptPrefix 角色生成条目的提示词前缀
const CharacterPromptPrefix = "[캐릭터 생성] "

// UnnamedCharacter 分析结果没有名字时的默认值
const UnnamedCharacter = "이름 없음"

// PhotorealisticStyles 场景图随机选用的摄影风格
var PhotorealisticStyles = []string{
	"Ultra-realistic DSLR photograph taken with an 85mm f/1.8 lens. The focus is tack-sharp on the subject's eyes, creating a creamy bokeh background. Lit with soft, natural light. A subtle, realistic film grain is visible.",
	"Cinematic film still from a modern Korean thriller. Shot with an anamorphic lens, creating subtle lens flare. The lighting is high-contrast and dramatic, with a slightly desaturated color palette, giving it an 8K hyper-detailed look.",
	"Authentic, candid street photography shot on Kodak Portra 400 film. Captures a genuine, unposed moment. The image has a distinct grainy texture and true-to-life colors characteristic of professional film stock.",
	"High-fashion editorial photograph. Lit with professional studio lighting, likely a large softbox, creating soft shadows and a clean look. Skin texture is perfect and natural. The color grading is sophisticated and deliberate.",
	"A raw, unposed documentary-style photo, captured with a 35mm lens using only available light. The focus is on capturing genuine emotion and telling a story through the environment. Appears unstaged and real.",
	"Hyper-detailed medium format photograph, as if taken with a Hasselblad camera. This results in incredible detail, texture, and tonal depth. The lighting is precisely controlled to sculpt the subject.",
	"Golden hour portrait. The lighting is warm, soft, and directional, creating long, gentle shadows and a beautiful glow on the subject. The depth of field is very shallow, isolating the character from the background.",
	"Atmospheric and moody photograph taken in a dimly lit interior setting. High ISO is used, resulting in noticeable but aesthetically pleasing film grain. Shallow depth of field isolates the subject from the surrounding darkness.",
}

// BuildScenePrompt 组合场景描述、角色信息和滤镜，结果同时作为条目的提示词保存
func BuildScenePrompt(characters []*models.Character, scene, camera string, filters []models.ActiveFilter) string {
	if camera == "" {
		camera = DefaultCamera
	}

	names := make([]string, 0, len(characters))
	details := make([]string, 0, len(characters))
	for _, c := range characters {
		names = append(names, "@"+c.Name)
		details = append(details, fmt.Sprintf("- **%s:** Described as %s, with a personality of '%s'. They are wearing '%s'.",
			c.Name, c.Age, c.Personality, c.Outfit))
	}
	characterList := strings.Join(names, ", ")
	if characterList == "" {
		characterList = "The character"
	}

	var b strings.Builder
	b.WriteString("**Scene Description:**\n")
	fmt.Fprintf(&b, "- **Characters:** %s\n", characterList)
	fmt.Fprintf(&b, "- **Scene:** %s\n", scene)
	fmt.Fprintf(&b, "- **Camera:** %s", camera)
	if len(details) > 0 {
		b.WriteString("\n\n**Character Details:**\n")
		b.WriteString(strings.Join(details, "\n"))
	}
	prompt := strings.TrimSpace(b.String())

	if looks := lookFragments(filters); looks != "" {
		prompt += "\n\n**Cinematic Style:** " + looks
	}
	return prompt
}

// lookFragments 按启用顺序输出 (fragment:0.85)，未知滤镜忽略
func lookFragments(filters []models.ActiveFilter) string {
	fragments := make([]string, 0, len(filters))
	for _, f := range filters {
		look, ok := models.FindLook(f.Title)
		if !ok {
			continue
		}
		fragments = append(fragments, fmt.Sprintf("(%s:%.2f)", look.PromptFragment, float64(f.Intensity)/100))
	}
	return strings.Join(fragments, ", ")
}

// EditedPrompt 记录一次修改
func EditedPrompt(prev, modification string) string {
	return prev + "\n[EDIT: " + modification + "]"
}

func aspectWording(aspect models.AspectRatio) (wording, orientation, opposite string) {
	if aspect == models.AspectPortrait {
		return "tall, vertical 9:16", "vertical", "horizontal"
	}
	return "wide, horizontal 16:9", "horizontal", "vertical"
}

// SceneInstruction 场景图的完整指令。参考图顺序为背景在前、角色在后
func SceneInstruction(prompt string, aspect models.AspectRatio, style string, variation bool) string {
	wording, orientation, opposite := aspectWording(aspect)

	variationClause := ""
	if variation {
		variationClause = "\n**VARIATION:** Create a different composition, pose, or camera angle from previous generations for this prompt."
	}

	return fmt.Sprintf(`
**AI Model Instructions: Absolute Background, Character Consistency & Photorealism**

Your four primary, non-negotiable goals are:
1.  **Background Consistency:** The scene's location MUST perfectly match the **FIRST reference image** provided. Replicate its lighting, architecture, and mood precisely.
2.  **Character Consistency:** The character(s) MUST perfectly match the **SECOND and subsequent reference images**. Replicate their facial features, age, hair, and overall look with extreme precision.
3.  **Photorealism:** Generate an image that is indistinguishable from a real photograph.
4.  **Aspect Ratio:** The final image MUST have a %[1]s aspect ratio.

---
**1. BACKGROUND & ENVIRONMENT (Source: FIRST Reference Image ONLY)**
**ACTION:** This is your highest priority. The generated scene's environment MUST be identical to the one in the first reference image you were given. If no background image is provided, create one based on the user's text prompt.

---
**2. CHARACTER DESIGN (Source: SECOND and Subsequent Reference Images ONLY)**
**ACTION:** Analyze the provided reference image(s) starting from the second one. You MUST replicate the exact appearance of the person/people in them.
**CRITICAL ETHNICITY MANDATE:** The character in the reference images is ethnically Korean. Your generated image MUST maintain this Korean ethnicity. This is a strict, non-negotiable rule. The generated person must be undeniably the SAME PERSON as in the reference photos.

---
**2. ART STYLE (MANDATORY & STRICT)**
**ACTION:** You MUST generate the image in the following photographic style. This is a critical instruction. The result MUST look like a real photograph, not an illustration, painting, or 3D render.
**STYLE:** %[4]s
**ABSOLUTE RESTRICTIONS:** Avoid any and all artistic stylization. No illustrated features, no airbrushed skin, no cartoonish proportions, no painterly textures. The image must appear as if it was captured by a high-end camera.

---
**3. SCENE DESCRIPTION (Source: User's Text Prompt)**
**ACTION:** Place the character(s) from section 2, rendered in the photographic style, into the background from section 1, according to the scene described by the user's prompt below.
**USER PROMPT:**
"%[5]s"
%[6]s
---
**4. TECHNICAL SPECIFICATIONS (NON-NEGOTIABLE)**
**ACTION:** Adhere strictly to the following technical requirements. This is the most important section.
-   **CRITICAL ASPECT RATIO:** The final image's aspect ratio MUST BE a %[1]s.
    -   **Valid examples for 16:9:** 1920x1080 pixels, 1280x720 pixels.
    -   **Valid examples for 9:16:** 1080x1920 pixels, 720x1280 pixels.
    -   **STRICTLY FORBIDDEN:** Do NOT generate a square (1:1, 1024x1024), %[3]s, or any other aspect ratio. The output MUST be %[2]s. Failure to follow this rule will result in an incorrect output.
-   **OUTPUT:** Generate ONE SINGLE, full-bleed image.
-   **CRITICAL RESTRICTION:** The generated image MUST NOT contain any text, letters, words, numbers, watermarks, or any form of typography. This is a strict rule.
- DO NOT use white borders or create multi-panel layouts.
`, wording, orientation, opposite, style, prompt, variationClause)
}

// PortraitInstruction 角色库参考肖像的指令
func PortraitInstruction(description string) string {
	return fmt.Sprintf(`
**TASK: Generate a photorealistic character portrait for a reference library.**

**CHARACTER DESCRIPTION:** "%s"

**CRITICAL RULE: The character MUST be portrayed as ethnically Korean.** This is a non-negotiable, top-priority instruction.

---
**COMPOSITION & POSE (VERY STRICT):**
-   **Shot Type:** Bust shot (from the chest up), similar to a passport or ID photo.
-   **Pose:** The character MUST be facing directly forward, looking at the camera. The pose must be completely neutral and static.
-   **Forbidden Poses:** No tilting of the head, no dynamic angles, and absolutely NO hands visible in the frame.
-   **Background:** Simple, non-distracting studio backdrop (solid light gray or off-white).
-   **Expression:** A completely neutral facial expression. No smiling or other emotions.
-   **Focus:** The focus must be entirely on the character.

---
**MANDATORY PHOTOGRAPHIC STYLE (NON-NEGOTIABLE):**
-   **Style:** Ultra-realistic, clean studio portrait.
-   **Lighting:** Bright, soft, and even lighting that illuminates the face clearly without creating harsh shadows. Think professional headshot lighting.
-   **Crucial Rule:** The final image MUST look like a real photograph. It must be indistinguishable from a photo taken with a high-end camera.
-   **Forbidden Effects:** Absolutely NO cinematic effects, no dramatic lighting, no lens flares, no heavy film grain, no vignettes, no color filters. The image should be plain and unstylized.

---
**FORBIDDEN ELEMENTS:**
-   The image MUST NOT contain any text, letters, words, numbers, watermarks, or typography.
`, description)
}

// EditInstruction 图像修改指令
func EditInstruction(modification string) string {
	return fmt.Sprintf(`
**AI Model Instructions: Intelligent Image Modification**

Your primary task is to intelligently modify the provided base image according to the user's request. You MUST produce a new, visibly changed image. Returning the original image is not an acceptable outcome.

---
**1. ANALYSIS OF BASE IMAGE**
-   **Analyze:** Scrutinize the provided input image to understand its subject, style, and composition.

---
**2. USER'S MODIFICATION REQUEST**
-   **Request:** "%s"
-   **Action:** Execute this request on the base image. The change should be noticeable and directly address the user's prompt.

---
**3. GUIDELINES FOR MODIFICATION (Apply with care)**
-   **Character Identity:** Unless the prompt *specifically* requests a change to the character's face or core identity, you must preserve it with high fidelity. The character should still be recognizable as the same person.
-   **Style Consistency:** Maintain the original image's photorealistic style, lighting, and overall aesthetic. The edited image should blend seamlessly with the original.
-   **Avoid Unnecessary Alterations:** Focus only on the requested changes. Do not alter other parts of the image unless it's necessary to make the requested change look natural.

---
**4. CRITICAL OUTPUT REQUIREMENTS**
-   **Output:** A single, edited image that is clearly different from the original.
-   **Restriction:** The image must not contain any text, watermarks, or typography.
`, modification)
}

// ExtractionPrompt 角色描述分析请求（韩文）
func ExtractionPrompt(description string) string {
	return "다음 한국어 캐릭터 설명을 분석해주세요. 캐릭터의 이름, 나이, 성격, 대표 의상을 추출하고, 이미지 생성 AI를 위해 외형 묘사를 영어로 번역해주세요. " +
		"모든 정보를 JSON 형식으로 반환해야 합니다. 만약 특정 정보가 없다면 빈 문자열(\"\")을 사용하세요. " +
		"영어 번역은 캐릭터의 시각적 특징에 초점을 맞춰 상세하게 작성해야 합니다.\n\n---\n캐릭터 설명:\n\"" + description + "\"\n---"
}
